// Package dashboard holds the state behind the signed-in home screen:
// balance, the buy and pay forms, and paginated transaction history.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/session"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	GetUSDCBalance(ctx context.Context, address, chain string) (*api.USDCBalance, error)
	PayWithCrypto(ctx context.Context, req api.PayWithCryptoRequest) (*api.PayWithCryptoResponse, error)
	BuyCrypto(ctx context.Context, req api.BuyCryptoRequest) (*api.BuyCryptoResponse, error)
	GetTransactionHistory(ctx context.Context, page, limit int) (*api.TransactionHistoryResponse, error)
	Logout(ctx context.Context) (*api.GenericResponse, error)
}

type Panel int

const (
	PanelBuy Panel = iota
	PanelPay
	PanelHistory
)

func (p Panel) String() string {
	switch p {
	case PanelBuy:
		return "buy"
	case PanelPay:
		return "pay"
	case PanelHistory:
		return "history"
	default:
		return fmt.Sprintf("panel(%d)", int(p))
	}
}

// FormStatus is the outcome of the last submission of a form.
type FormStatus struct {
	Loading bool
	Error   string
	Success string
}

type State struct {
	WalletAddress string
	PhoneNumber   string
	Chain         string

	Balance        *wallet.Balance
	BalanceLoading bool

	Open map[Panel]bool

	Transactions        []api.Transaction
	Pagination          api.Pagination
	TransactionsLoading bool
	TransactionsError   string

	Payment      FormStatus
	PaymentDraft PaymentForm
	Purchase     FormStatus
}

// Controller owns dashboard state. Backend calls are made without its lock held.
type Controller struct {
	backend  Backend
	store    session.Store
	nav      nav.Navigator
	cfg      *config.Config
	chain    string
	token    string
	pageSize int
	onChange func()

	mu             sync.Mutex
	balance        *wallet.Balance
	balanceLoading bool
	open           map[Panel]bool
	transactions   []api.Transaction
	pagination     api.Pagination
	txLoading      bool
	txError        string
	payment        FormStatus
	paymentDraft   PaymentForm
	purchase       FormStatus
}

func New(b Backend, store session.Store, n nav.Navigator, cfg *config.Config) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	pageSize := cfg.Dashboard.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Controller{
		backend:        b,
		store:          store,
		nav:            n,
		cfg:            cfg,
		chain:          cfg.Dashboard.Chain,
		token:          cfg.Dashboard.Token,
		pageSize:       pageSize,
		balanceLoading: true,
		open:           map[Panel]bool{},
		pagination:     api.Pagination{CurrentPage: 1, TotalPages: 1, Limit: pageSize},
		paymentDraft:   PaymentForm{TargetType: api.TargetPaybill},
	}
}

// OnChange registers fn to be called after every state change. Call it
// before the controller is shared.
func (c *Controller) OnChange(fn func()) {
	c.onChange = fn
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) Config() *config.Config { return c.cfg }

func (c *Controller) State() State {
	sess, _ := c.store.Get()

	c.mu.Lock()
	defer c.mu.Unlock()

	open := make(map[Panel]bool, len(c.open))
	for p, v := range c.open {
		open[p] = v
	}
	var bal *wallet.Balance
	if c.balance != nil {
		b := *c.balance
		bal = &b
	}
	return State{
		WalletAddress:       sess.WalletAddress,
		PhoneNumber:         sess.PhoneNumber,
		Chain:               c.chain,
		Balance:             bal,
		BalanceLoading:      c.balanceLoading,
		Open:                open,
		Transactions:        append([]api.Transaction(nil), c.transactions...),
		Pagination:          c.pagination,
		TransactionsLoading: c.txLoading,
		TransactionsError:   c.txError,
		Payment:             c.payment,
		PaymentDraft:        c.paymentDraft,
		Purchase:            c.purchase,
	}
}

// Activate sends a signed-out user to the login screen, otherwise loads the balance.
func (c *Controller) Activate(ctx context.Context) error {
	if !c.store.IsAuthenticated() {
		c.nav.Navigate(nav.Login)
		return ErrNotAuthenticated
	}
	return c.LoadBalance(ctx)
}

// LoadBalance fetches the balance of the session's wallet on the configured
// chain. On failure the previous balance, if any, is kept.
func (c *Controller) LoadBalance(ctx context.Context) error {
	sess, err := c.store.Get()
	if err != nil {
		c.setBalanceLoading(false)
		return fmt.Errorf("read session: %w", err)
	}
	if sess.WalletAddress == "" {
		c.setBalanceLoading(false)
		return ErrNoWallet
	}

	c.setBalanceLoading(true)
	resp, err := c.backend.GetUSDCBalance(ctx, sess.WalletAddress, c.chain)
	if err != nil {
		logger.ErrorCF("dashboard", "Failed to load balance", map[string]any{
			"chain":  c.chain,
			"wallet": wallet.Shorten(sess.WalletAddress),
			"error":  err.Error(),
		})
		c.setBalanceLoading(false)
		return fmt.Errorf("load balance: %w", err)
	}

	bal, err := wallet.NewBalance(resp.BalanceInUSDC.String(), resp.BalanceInKES.String(), resp.Rate)
	if err != nil {
		logger.ErrorCF("dashboard", "Backend sent an unreadable balance", map[string]any{
			"error": err.Error(),
		})
		c.setBalanceLoading(false)
		return err
	}

	c.mu.Lock()
	c.balance = &bal
	c.balanceLoading = false
	c.mu.Unlock()
	c.notify()

	logger.DebugCF("dashboard", "Balance loaded", map[string]any{
		"chain": c.chain,
		"usdc":  bal.USDC.String(),
	})
	return nil
}

func (c *Controller) setBalanceLoading(v bool) {
	c.mu.Lock()
	c.balanceLoading = v
	c.mu.Unlock()
	c.notify()
}

// TogglePanel opens or closes p. Opening the history panel while nothing
// is cached loads the first page.
func (c *Controller) TogglePanel(ctx context.Context, p Panel) error {
	c.mu.Lock()
	open := !c.open[p]
	c.open[p] = open
	load := p == PanelHistory && open && len(c.transactions) == 0 && !c.txLoading
	c.mu.Unlock()
	c.notify()

	if load {
		return c.LoadTransactions(ctx, 1)
	}
	return nil
}

func (c *Controller) IsOpen(p Panel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open[p]
}

// Logout ends the session and returns to the landing screen. A failed
// backend call is logged only; the local session is gone either way.
func (c *Controller) Logout(ctx context.Context) {
	if _, err := c.backend.Logout(ctx); err != nil {
		logger.WarnCF("dashboard", "Logout call failed", map[string]any{"error": err.Error()})
	}

	c.mu.Lock()
	c.balance = nil
	c.transactions = nil
	c.open = map[Panel]bool{}
	c.mu.Unlock()

	c.nav.Navigate(nav.Landing)
}
