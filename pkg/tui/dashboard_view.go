package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/dashboard"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

const dashboardHelp = "[yellow]r[-] refresh  [yellow]n/p[-] page  [yellow]P[-] pay  [yellow]B[-] buy  [yellow]L[-] logout  [yellow]q[-] quit"

// DashboardView draws the dashboard controller's state. It never keeps state
// of its own beyond the widgets; every redraw reads Controller.State.
type DashboardView struct {
	ctrl *dashboard.Controller
	cfg  *config.Config

	app    *tview.Application
	pages  *tview.Pages
	header *tview.TextView
	table  *tview.Table
	status *tview.TextView
}

func NewDashboardView(ctrl *dashboard.Controller) *DashboardView {
	v := &DashboardView{
		ctrl:   ctrl,
		cfg:    ctrl.Config(),
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		header: tview.NewTextView().SetDynamicColors(true),
		table:  tview.NewTable().SetFixed(1, 0).SetSelectable(true, false),
		status: tview.NewTextView().SetDynamicColors(true),
	}
	v.header.SetBorder(true)
	v.header.SetTitle(" NexusPay ")
	v.table.SetBorder(true)
	v.table.SetTitle(" Transactions ")

	help := tview.NewTextView().SetDynamicColors(true).SetText(dashboardHelp)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.header, 4, 0, false).
		AddItem(v.table, 0, 1, true).
		AddItem(v.status, 1, 0, false).
		AddItem(help, 1, 0, false)
	v.pages.AddPage("main", layout, true, true)
	return v
}

// SetScreen replaces the terminal, for tests with a simulation screen.
func (v *DashboardView) SetScreen(s tcell.Screen) {
	v.app.SetScreen(s)
}

// Run shows the dashboard until the user quits or logs out.
func (v *DashboardView) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.ctrl.OnChange(func() {
		v.app.QueueUpdateDraw(v.render)
	})
	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if name, _ := v.pages.GetFrontPage(); name != "main" {
			return ev
		}
		return v.handleKey(ctx, ev)
	})

	go func() {
		if err := v.ctrl.Activate(ctx); err != nil {
			logger.WarnCF("tui", "Dashboard activation failed", map[string]any{"error": err.Error()})
			if errors.Is(err, dashboard.ErrNotAuthenticated) {
				v.app.Stop()
				return
			}
		}
		if !v.ctrl.IsOpen(dashboard.PanelHistory) {
			_ = v.ctrl.TogglePanel(ctx, dashboard.PanelHistory)
		}
	}()

	v.render()
	return v.app.SetRoot(v.pages, true).Run()
}

func (v *DashboardView) handleKey(ctx context.Context, ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyEscape {
		v.app.Stop()
		return nil
	}
	if ev.Key() != tcell.KeyRune {
		return ev
	}

	switch ev.Rune() {
	case 'q':
		v.app.Stop()
	case 'r':
		go func() {
			_ = v.ctrl.LoadBalance(ctx)
			_ = v.ctrl.LoadTransactions(ctx, v.ctrl.State().Pagination.CurrentPage)
		}()
	case 'n':
		go func() { _ = v.ctrl.NextPage(ctx) }()
	case 'p':
		go func() { _ = v.ctrl.PrevPage(ctx) }()
	case 'P':
		v.showPayForm(ctx)
	case 'B':
		v.showBuyForm(ctx)
	case 'L':
		go func() {
			v.ctrl.Logout(ctx)
			v.app.Stop()
		}()
	default:
		return ev
	}
	return nil
}

func (v *DashboardView) render() {
	st := v.ctrl.State()
	v.header.SetText(HeaderText(st))
	FillTransactions(v.table, st, v.cfg)
	v.status.SetText(StatusText(st))
}

func (v *DashboardView) showPayForm(ctx context.Context) {
	draft := v.ctrl.State().PaymentDraft
	targets := []string{api.TargetPaybill, api.TargetTill}
	initial := 0
	if draft.TargetType == api.TargetTill {
		initial = 1
	}

	form := tview.NewForm().
		AddInputField("Amount (KES)", draft.Amount, 20, nil, nil).
		AddDropDown("Pay to", targets, initial, nil).
		AddInputField("Number", draft.TargetNumber, 20, nil, nil).
		AddInputField("Account", draft.AccountNumber, 20, nil, nil).
		AddInputField("Description", draft.Description, 30, nil, nil)
	form.AddButton("Pay", func() {
		_, target := form.GetFormItem(1).(*tview.DropDown).GetCurrentOption()
		pf := dashboard.PaymentForm{
			Amount:        inputText(form, 0),
			TargetType:    target,
			TargetNumber:  inputText(form, 2),
			AccountNumber: inputText(form, 3),
			Description:   inputText(form, 4),
		}
		v.closeForm("pay")
		go func() { _ = v.ctrl.SubmitPayment(ctx, pf) }()
	})
	form.AddButton("Cancel", func() { v.closeForm("pay") })
	form.SetCancelFunc(func() { v.closeForm("pay") })
	form.SetBorder(true)
	form.SetTitle(" Pay with crypto ")

	v.pages.AddPage("pay", modal(form, 50, 15), true, true)
	v.app.SetFocus(form)
}

func (v *DashboardView) showBuyForm(ctx context.Context) {
	form := tview.NewForm().
		AddInputField("Amount", "", 20, nil, nil).
		AddInputField("Chain", v.cfg.Dashboard.Chain, 20, nil, nil).
		AddInputField("Token", v.cfg.Dashboard.Token, 20, nil, nil)
	form.AddButton("Buy", func() {
		pf := dashboard.PurchaseForm{
			CryptoAmount: inputText(form, 0),
			Chain:        inputText(form, 1),
			Token:        inputText(form, 2),
		}
		v.closeForm("buy")
		go func() { _ = v.ctrl.SubmitPurchase(ctx, pf) }()
	})
	form.AddButton("Cancel", func() { v.closeForm("buy") })
	form.SetCancelFunc(func() { v.closeForm("buy") })
	form.SetBorder(true)
	form.SetTitle(" Buy crypto with M-Pesa ")

	v.pages.AddPage("buy", modal(form, 50, 11), true, true)
	v.app.SetFocus(form)
}

func (v *DashboardView) closeForm(name string) {
	v.pages.RemovePage(name)
	v.app.SetFocus(v.table)
}

func inputText(form *tview.Form, i int) string {
	if field, ok := form.GetFormItem(i).(*tview.InputField); ok {
		return strings.TrimSpace(field.GetText())
	}
	return ""
}

// modal centres p in a box of the given size.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// HeaderText is the wallet and balance block.
func HeaderText(st dashboard.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wallet [::b]%s[::-]", wallet.Shorten(st.WalletAddress))
	if st.PhoneNumber != "" {
		fmt.Fprintf(&b, "  •  %s", st.PhoneNumber)
	}
	if st.Chain != "" {
		fmt.Fprintf(&b, "  •  %s", strings.ToUpper(st.Chain))
	}
	b.WriteString("\n")

	switch {
	case st.Balance != nil:
		fmt.Fprintf(&b, "Balance [green]%s[-]  ≈ %s", st.Balance.FormattedUSDC(), st.Balance.FormattedKES())
		if st.BalanceLoading {
			b.WriteString("  [gray](refreshing)[-]")
		}
	case st.BalanceLoading:
		b.WriteString("Loading balance...")
	default:
		b.WriteString("[red]Balance unavailable[-]")
	}
	return b.String()
}

var transactionColumns = []string{"Date", "Type", "Amount", "Token", "Target", "Status", "Hash"}

// FillTransactions rewrites table with one row per transaction.
func FillTransactions(table *tview.Table, st dashboard.State, cfg *config.Config) {
	table.Clear()
	for c, name := range transactionColumns {
		table.SetCell(0, c, tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	if len(st.Transactions) == 0 {
		msg := "No transactions yet"
		switch {
		case st.TransactionsLoading:
			msg = "Loading transactions..."
		case st.TransactionsError != "":
			msg = st.TransactionsError
		}
		table.SetCell(1, 0, tview.NewTableCell(msg).SetSelectable(false))
		return
	}

	for i, tx := range st.Transactions {
		row := i + 1
		amount := fmt.Sprintf("%s%.2f", dashboard.DirectionSign(tx.Direction), tx.Amount)
		hash := dashboard.ShortHash(tx)
		if hash != "" && cfg != nil {
			if url := dashboard.TxExplorerURL(cfg, tx); url != "" {
				hash = fmt.Sprintf("[:::%s]%s[:::-]", url, hash)
			}
		}
		cells := []string{
			dashboard.FormatDate(tx.CreatedAt),
			dashboard.TypeLabel(tx.Type),
			amount,
			dashboard.TokenLine(tx),
			dashboard.TargetLine(tx),
			dashboard.StatusLabel(tx.Status),
			hash,
		}
		for c, text := range cells {
			cell := tview.NewTableCell(text)
			if c == 5 {
				cell.SetTextColor(statusColor(tx.Status))
			}
			table.SetCell(row, c, cell)
		}
	}
}

func statusColor(status string) tcell.Color {
	switch status {
	case api.StatusCompleted:
		return tcell.ColorGreen
	case api.StatusFailed:
		return tcell.ColorRed
	default:
		return tcell.ColorYellow
	}
}

// StatusText is the one-line footer: form outcomes first, then paging.
func StatusText(st dashboard.State) string {
	switch {
	case st.Payment.Loading:
		return "Sending payment..."
	case st.Payment.Error != "":
		return "[red]" + st.Payment.Error + "[-]"
	case st.Payment.Success != "":
		return "[green]" + st.Payment.Success + "[-]"
	case st.Purchase.Loading:
		return "Starting purchase..."
	case st.Purchase.Error != "":
		return "[red]" + st.Purchase.Error + "[-]"
	case st.Purchase.Success != "":
		return "[green]" + st.Purchase.Success + "[-]"
	case st.TransactionsError != "" && len(st.Transactions) > 0:
		return "[red]" + st.TransactionsError + "[-]"
	}
	p := st.Pagination
	return fmt.Sprintf("Page %d of %d  (%d transactions)", max(p.CurrentPage, 1), max(p.TotalPages, 1), p.TotalItems)
}
