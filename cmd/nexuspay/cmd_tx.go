package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/dashboard"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

func newTxCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Inspect transaction history",
	}
	cmd.AddCommand(newTxListCommand(c), newTxShowCommand(c), newTxStatusCommand(c))
	return cmd
}

type txPageView struct {
	Transactions []api.Transaction `json:"transactions" yaml:"transactions"`
	Pagination   api.Pagination    `json:"pagination" yaml:"pagination"`
}

func newTxListCommand(c *cli) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			if limit > 0 {
				c.cfg.Dashboard.PageSize = limit
			}
			ctrl := dashboard.New(c.client, c.store, discardNav(), c.cfg)
			if err := ctrl.LoadTransactions(cmd.Context(), page); err != nil {
				if msg := ctrl.State().TransactionsError; msg != "" {
					return errors.New(msg)
				}
				return err
			}

			st := ctrl.State()
			v := txPageView{Transactions: st.Transactions, Pagination: st.Pagination}
			return c.render(cmd, v, func(w io.Writer) { writeTxTable(w, v) })
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "transactions per page (default from config)")
	return cmd
}

func writeTxTable(w io.Writer, v txPageView) {
	if len(v.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tTOKEN\tSTATUS\tHASH")
	for _, tx := range v.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s%.2f\t%s\t%s\t%s\n",
			tx.ID,
			dashboard.FormatDate(tx.CreatedAt),
			dashboard.TypeLabel(tx.Type),
			dashboard.DirectionSign(tx.Direction), tx.Amount,
			dashboard.TokenLine(tx),
			dashboard.StatusLabel(tx.Status),
			dashboard.ShortHash(tx),
		)
	}
	tw.Flush()
	p := v.Pagination
	fmt.Fprintf(w, "\nPage %d of %d (%d transactions)\n", max(p.CurrentPage, 1), max(p.TotalPages, 1), p.TotalItems)
}

func newTxShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			resp, err := c.client.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !resp.Success || resp.Data == nil {
				if resp.Message != "" {
					return errors.New(resp.Message)
				}
				return fmt.Errorf("transaction %s not found", args[0])
			}
			tx := *resp.Data
			return c.render(cmd, tx, func(w io.Writer) { writeTxDetail(w, tx, c.cfg) })
		},
	}
}

func writeTxDetail(w io.Writer, tx api.Transaction, cfg *config.Config) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", label, value)
		}
	}
	row("ID", tx.ID)
	row("Type", dashboard.TypeLabel(tx.Type))
	row("Status", dashboard.StatusLabel(tx.Status))
	row("Date", dashboard.FormatDate(tx.CreatedAt))
	row("Amount", fmt.Sprintf("%s%.2f", dashboard.DirectionSign(tx.Direction), tx.Amount))
	row("Token", dashboard.TokenLine(tx))
	row("Value", dashboard.FiatLine(tx))
	row("Target", dashboard.TargetLine(tx))
	row("Description", tx.Description)
	row("Hash", wallet.ShortenHash(tx.TxHash))
	row("Explorer", dashboard.TxExplorerURL(cfg, tx))
	tw.Flush()
}

func newTxStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Ask M-Pesa for the state of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			resp, err := c.client.GetTransactionStatus(cmd.Context(), args[0])
			return c.renderGeneric(cmd, resp, err, "Transaction "+args[0])
		},
	}
}
