package api

import (
	"context"
	"net/url"
)

// GetUSDCBalance returns the USDC balance of address on chain, with its KES value.
func (c *Client) GetUSDCBalance(ctx context.Context, address, chain string) (*USDCBalance, error) {
	path := "/usdc/usdc-balance/" + url.PathEscape(chain) + "/" + url.PathEscape(address)
	var out USDCBalance
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PayWithCrypto settles an M-Pesa paybill or till payment from the wallet.
func (c *Client) PayWithCrypto(ctx context.Context, req PayWithCryptoRequest) (*PayWithCryptoResponse, error) {
	var out PayWithCryptoResponse
	if err := c.post(ctx, "/mpesa/pay-with-crypto", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuyCrypto starts an M-Pesa collection that credits the wallet.
func (c *Client) BuyCrypto(ctx context.Context, req BuyCryptoRequest) (*BuyCryptoResponse, error) {
	var out BuyCryptoResponse
	if err := c.post(ctx, "/mpesa/buy-crypto", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PayPaybill(ctx context.Context, req PayPaybillRequest) (*GenericResponse, error) {
	return c.postGeneric(ctx, "/mpesa/pay-paybill", req)
}

func (c *Client) PayTill(ctx context.Context, req PayTillRequest) (*GenericResponse, error) {
	return c.postGeneric(ctx, "/mpesa/pay-till", req)
}

func (c *Client) Deposit(ctx context.Context, req MpesaTransferRequest) (*GenericResponse, error) {
	return c.postGeneric(ctx, "/mpesa/deposit", req)
}

func (c *Client) Withdraw(ctx context.Context, req MpesaTransferRequest) (*GenericResponse, error) {
	return c.postGeneric(ctx, "/mpesa/withdraw", req)
}

func (c *Client) GetTransactionStatus(ctx context.Context, id string) (*GenericResponse, error) {
	var out GenericResponse
	if err := c.get(ctx, "/mpesa/transaction-status/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendToken transfers tokens to a phone number, email or address.
func (c *Client) SendToken(ctx context.Context, req SendTokenRequest) (*GenericResponse, error) {
	return c.postGeneric(ctx, "/tokens/sendToken", req)
}

func (c *Client) GetWalletInfo(ctx context.Context) (*GenericResponse, error) {
	var out GenericResponse
	if err := c.get(ctx, "/tokens/wallet", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postGeneric(ctx context.Context, path string, body any) (*GenericResponse, error) {
	var out GenericResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
