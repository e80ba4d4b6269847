package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/dashboard"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

type balanceView struct {
	WalletAddress string `json:"walletAddress" yaml:"walletAddress"`
	Chain         string `json:"chain" yaml:"chain"`
	USDC          string `json:"balanceInUSDC" yaml:"balanceInUSDC"`
	KES           string `json:"balanceInKES" yaml:"balanceInKES"`
	Rate          string `json:"rate" yaml:"rate"`
}

func (v balanceView) text(w io.Writer, bal wallet.Balance) {
	fmt.Fprintf(w, "%s on %s\n", wallet.Shorten(v.WalletAddress), strings.ToUpper(v.Chain))
	fmt.Fprintf(w, "  %s\n", bal.FormattedUSDC())
	fmt.Fprintf(w, "  %s (1 USDC = KES %s)\n", bal.FormattedKES(), v.Rate)
}

// loadController builds a dashboard controller with the balance loaded.
func (c *cli) loadController(ctx context.Context) (*dashboard.Controller, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	ctrl := dashboard.New(c.client, c.store, discardNav(), c.cfg)
	if err := ctrl.Activate(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (c *cli) showBalance(ctx context.Context, cmd *cobra.Command) error {
	ctrl, err := c.loadController(ctx)
	if err != nil {
		return err
	}
	st := ctrl.State()
	if st.Balance == nil {
		return errors.New(dashboard.MsgBalanceNotLoaded)
	}
	bal := *st.Balance
	v := balanceView{
		WalletAddress: wallet.Checksum(st.WalletAddress),
		Chain:         st.Chain,
		USDC:          bal.USDC.StringFixed(wallet.USDCDecimals),
		KES:           bal.KES.StringFixed(wallet.KESDecimals),
		Rate:          bal.Rate.String(),
	}
	return c.render(cmd, v, func(w io.Writer) { v.text(w, bal) })
}

func newBalanceCommand(c *cli) *cobra.Command {
	var chain string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the USDC balance and its KES value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.useChain(chain); err != nil {
				return err
			}
			return c.showBalance(cmd.Context(), cmd)
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain to query (default from config)")
	return cmd
}

// useChain overrides the configured chain for this run.
func (c *cli) useChain(chain string) error {
	if chain == "" {
		return nil
	}
	ch, ok := c.cfg.Chain(chain)
	if !ok {
		return errors.New(dashboard.MsgUnsupportedChain)
	}
	c.cfg.Dashboard.Chain = ch.Name
	return nil
}

func newReceiveCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "receive",
		Short: "Show the wallet address as a QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.requireSession()
			if err != nil {
				return err
			}
			info, err := wallet.NewInfo(sess.WalletAddress, sess.PhoneNumber, c.cfg.Dashboard.Chain)
			if err != nil {
				return err
			}
			v := map[string]string{"walletAddress": info.Address.Hex(), "chain": info.Chain}
			var qrErr error
			err = c.render(cmd, v, func(w io.Writer) {
				fmt.Fprintf(w, "Send %s on %s to:\n\n", c.cfg.Dashboard.Token, strings.ToUpper(info.Chain))
				qrErr = wallet.WriteQR(w, info.Address.Hex())
				fmt.Fprintf(w, "\n%s\n", info.Address.Hex())
			})
			if err != nil {
				return err
			}
			return qrErr
		},
	}
}

func newPayCommand(c *cli) *cobra.Command {
	var (
		form  dashboard.PaymentForm
		till  string
		chain string
	)
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Pay an M-Pesa paybill or till from the USDC balance",
		Example: `  nexuspay pay --amount 1500 --paybill 888880 --account 12345
  nexuspay pay --amount 250 --till 123456`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form.TargetType = api.TargetPaybill
			if till != "" {
				form.TargetType = api.TargetTill
				form.TargetNumber = till
				form.AccountNumber = ""
			}
			if err := c.useChain(chain); err != nil {
				return err
			}
			ctrl, err := c.loadController(cmd.Context())
			if err != nil {
				return err
			}
			if err := ctrl.SubmitPayment(cmd.Context(), form); err != nil {
				return err
			}
			msg := ctrl.State().Payment.Success
			return c.render(cmd, map[string]string{"status": "submitted", "instructions": msg}, func(w io.Writer) {
				fmt.Fprintln(w, "Payment submitted.")
				if msg != "" {
					fmt.Fprintln(w, msg)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Amount, "amount", "", "amount in KES")
	f.StringVar(&form.TargetNumber, "paybill", "", "paybill number")
	f.StringVar(&till, "till", "", "till number")
	f.StringVar(&form.AccountNumber, "account", "", "paybill account number")
	f.StringVar(&form.Description, "description", "", "note for the payment")
	f.StringVar(&chain, "chain", "", "chain to pay from (default from config)")
	cmd.MarkFlagsMutuallyExclusive("paybill", "till")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBuyCommand(c *cli) *cobra.Command {
	var form dashboard.PurchaseForm
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy crypto with M-Pesa from the signed-in phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			// A purchase does not need the balance up front.
			ctrl := dashboard.New(c.client, c.store, discardNav(), c.cfg)
			if err := ctrl.SubmitPurchase(cmd.Context(), form); err != nil {
				return err
			}
			msg := ctrl.State().Purchase.Success
			return c.render(cmd, map[string]string{"status": "initiated", "instructions": msg}, func(w io.Writer) {
				fmt.Fprintln(w, msg)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.CryptoAmount, "amount", "", "amount of crypto to buy")
	f.StringVar(&form.Chain, "chain", "", "chain to receive on (default from config)")
	f.StringVar(&form.Token, "token", "", "token to buy (default from config)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newSendCommand(c *cli) *cobra.Command {
	var to, amount, chain string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send tokens to a phone number or wallet address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.requireSession()
			if err != nil {
				return err
			}
			value, err := wallet.ParseAmount(amount)
			if err != nil {
				return errors.New(dashboard.MsgInvalidAmount)
			}
			if chain == "" {
				chain = c.cfg.Dashboard.Chain
			}
			if _, ok := c.cfg.Chain(chain); !ok {
				return errors.New(dashboard.MsgUnsupportedChain)
			}
			resp, err := c.client.SendToken(cmd.Context(), api.SendTokenRequest{
				RecipientIdentifier: strings.TrimSpace(to),
				Amount:              value.String(),
				SenderAddress:       sess.WalletAddress,
				Chain:               strings.ToLower(chain),
			})
			return c.renderGeneric(cmd, resp, err, "Transfer submitted.")
		},
	}
	f := cmd.Flags()
	f.StringVar(&to, "to", "", "recipient phone number or wallet address")
	f.StringVar(&amount, "amount", "", "amount of tokens")
	f.StringVar(&chain, "chain", "", "chain (default from config)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newDepositCommand(c *cli) *cobra.Command {
	return newTransferCommand(c, "deposit", "Top up the wallet from M-Pesa", (*api.Client).Deposit)
}

func newWithdrawCommand(c *cli) *cobra.Command {
	return newTransferCommand(c, "withdraw", "Withdraw from the wallet to M-Pesa", (*api.Client).Withdraw)
}

type transferFunc func(*api.Client, context.Context, api.MpesaTransferRequest) (*api.GenericResponse, error)

func newTransferCommand(c *cli, use, short string, call transferFunc) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.requireSession()
			if err != nil {
				return err
			}
			if sess.PhoneNumber == "" {
				return errors.New(dashboard.MsgPhoneUnavailable)
			}
			value, err := wallet.ParseAmount(amount)
			if err != nil {
				return errors.New(dashboard.MsgInvalidAmount)
			}
			resp, err := call(c.client, cmd.Context(), api.MpesaTransferRequest{
				Amount: value.InexactFloat64(),
				Phone:  sess.PhoneNumber,
			})
			return c.renderGeneric(cmd, resp, err, "Request sent. Check your phone to confirm.")
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount in KES")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// renderGeneric reports a GenericResponse, turning success=false into an error.
func (c *cli) renderGeneric(cmd *cobra.Command, resp *api.GenericResponse, err error, done string) error {
	if err != nil {
		return err
	}
	if resp == nil || !resp.Success {
		msg := "request failed"
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return errors.New(msg)
	}
	return c.render(cmd, genericView(resp), func(w io.Writer) {
		fmt.Fprintln(w, done)
		if resp.Message != "" {
			fmt.Fprintln(w, resp.Message)
		}
	})
}

// genericView decodes the raw data field so that it renders as a tree.
func genericView(resp *api.GenericResponse) map[string]any {
	v := map[string]any{"success": resp.Success}
	if resp.Message != "" {
		v["message"] = resp.Message
	}
	if len(resp.Data) > 0 {
		var data any
		if err := json.Unmarshal(resp.Data, &data); err == nil {
			v["data"] = data
		}
	}
	return v
}
