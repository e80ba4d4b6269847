package api

import (
	"context"
	"net/url"
	"strconv"
)

// GetTransactionHistory returns one page of the user's transactions.
// Non-positive page or limit fall back to 1 and 10.
func (c *Client) GetTransactionHistory(ctx context.Context, page, limit int) (*TransactionHistoryResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out TransactionHistoryResponse
	if err := c.get(ctx, "/transactions?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*TransactionDetailResponse, error) {
	var out TransactionDetailResponse
	if err := c.get(ctx, "/transactions/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
