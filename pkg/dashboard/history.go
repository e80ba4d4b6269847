package dashboard

import (
	"context"
	"fmt"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/logger"
)

// LoadTransactions fetches one page of history and replaces the cached page.
// Failures become TransactionsError; the cached page is kept.
func (c *Controller) LoadTransactions(ctx context.Context, page int) error {
	c.mu.Lock()
	if c.txLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.txLoading = true
	c.txError = ""
	c.mu.Unlock()
	c.notify()

	resp, err := c.backend.GetTransactionHistory(ctx, page, c.pageSize)

	c.mu.Lock()
	c.txLoading = false
	var result error
	switch {
	case err != nil:
		fields := map[string]any{"page": page, "error": err.Error()}
		if api.IsUnauthorized(err) {
			logger.WarnCF("dashboard", "Backend rejected the session token", fields)
		} else {
			logger.ErrorCF("dashboard", "Failed to load transactions", fields)
		}
		msg := api.BackendMessage(err)
		if msg == "" {
			msg = MsgTransactionsFailed
		}
		c.txError = msg
		result = fmt.Errorf("load transactions: %w", err)
	case resp != nil && resp.Success && resp.Data != nil:
		c.transactions = resp.Data.Transactions
		c.pagination = resp.Data.Pagination
		if c.pagination.CurrentPage == 0 {
			c.pagination.CurrentPage = page
		}
		if c.pagination.TotalPages == 0 {
			c.pagination.TotalPages = 1
		}
	default:
		c.txError = MsgHistoryFailed
		result = ErrHistoryUnavailable
	}
	c.mu.Unlock()
	c.notify()
	return result
}

func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.pagination
	busy := c.txLoading
	c.mu.Unlock()

	if busy {
		return ErrBusy
	}
	if p.CurrentPage >= p.TotalPages {
		return ErrNoPage
	}
	return c.LoadTransactions(ctx, p.CurrentPage+1)
}

func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.pagination
	busy := c.txLoading
	c.mu.Unlock()

	if busy {
		return ErrBusy
	}
	if p.CurrentPage <= 1 {
		return ErrNoPage
	}
	return c.LoadTransactions(ctx, p.CurrentPage-1)
}
