package dashboard

import (
	"context"
	"errors"
	"strings"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

// PaymentForm pays an M-Pesa paybill or till in KES from the USDC balance.
type PaymentForm struct {
	Amount        string // KES
	TargetType    string // paybill or till
	TargetNumber  string
	AccountNumber string // paybill only
	Description   string
}

// PurchaseForm buys crypto with M-Pesa from the session's phone number.
type PurchaseForm struct {
	CryptoAmount string
	Chain        string // defaults to the configured chain
	Token        string // defaults to the configured token
}

// SubmitPayment checks the form against the loaded balance and sends it.
// A rejected form or payment is reported in State().Payment and returned as
// a *FormError.
func (c *Controller) SubmitPayment(ctx context.Context, form PaymentForm) error {
	sess, _ := c.store.Get()

	c.mu.Lock()
	if c.payment.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.payment = FormStatus{Loading: true}
	c.paymentDraft = form
	bal := c.balance
	c.mu.Unlock()

	if form.TargetType == "" {
		form.TargetType = api.TargetPaybill
	}

	if bal == nil || sess.WalletAddress == "" {
		return c.failPayment(MsgBalanceNotLoaded)
	}
	amount, err := wallet.ParseAmount(form.Amount)
	if err != nil {
		return c.failPayment(MsgInvalidAmount)
	}
	crypto, err := bal.CryptoFor(amount)
	if errors.Is(err, wallet.ErrNoRate) {
		return c.failPayment(MsgBalanceNotLoaded)
	}
	if !bal.CoversKES(amount) {
		return c.failPayment(MsgInsufficientBalance)
	}
	if form.TargetType != api.TargetPaybill && form.TargetType != api.TargetTill {
		return c.failPayment(MsgInvalidTarget)
	}
	if strings.TrimSpace(form.TargetNumber) == "" {
		return c.failPayment(MsgTargetRequired)
	}

	req := api.PayWithCryptoRequest{
		Amount:       amount.InexactFloat64(),
		CryptoAmount: crypto.InexactFloat64(),
		TargetType:   form.TargetType,
		TargetNumber: strings.TrimSpace(form.TargetNumber),
		Chain:        c.chain,
		TokenType:    c.token,
		Description:  strings.TrimSpace(form.Description),
	}
	if form.TargetType == api.TargetPaybill {
		req.AccountNumber = strings.TrimSpace(form.AccountNumber)
	}

	c.notify()

	resp, err := c.backend.PayWithCrypto(ctx, req)

	var msg string
	switch {
	case err != nil:
		logger.ErrorCF("dashboard", "Payment failed", map[string]any{
			"target_type": req.TargetType,
			"error":       err.Error(),
		})
		msg = err.Error()
		if msg == "" {
			msg = MsgPaymentFailed
		}
	case resp != nil && resp.Success && resp.Data != nil:
		c.mu.Lock()
		c.payment = FormStatus{Success: resp.Data.Instructions}
		c.paymentDraft = PaymentForm{TargetType: api.TargetPaybill}
		c.mu.Unlock()
		c.notify()

		logger.InfoCF("dashboard", "Payment submitted", map[string]any{
			"transaction_id": resp.Data.TransactionID,
			"target_type":    req.TargetType,
			"amount_kes":     amount.String(),
		})
		c.refreshBalance(ctx)
		return nil
	default:
		msg = MsgPaymentFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
	}
	return c.failPayment(msg)
}

func (c *Controller) failPayment(msg string) error {
	c.mu.Lock()
	c.payment = FormStatus{Error: msg}
	c.mu.Unlock()
	c.notify()
	return formError(msg)
}

// SubmitPurchase starts an M-Pesa purchase of crypto for the session's phone.
func (c *Controller) SubmitPurchase(ctx context.Context, form PurchaseForm) error {
	sess, _ := c.store.Get()

	c.mu.Lock()
	if c.purchase.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.purchase = FormStatus{Loading: true}
	c.mu.Unlock()

	if sess.PhoneNumber == "" {
		return c.failPurchase(MsgPhoneUnavailable)
	}
	amount, err := wallet.ParseAmount(form.CryptoAmount)
	if err != nil {
		return c.failPurchase(MsgInvalidCryptoAmount)
	}

	chainName := form.Chain
	if chainName == "" {
		chainName = c.chain
	}
	chain, ok := c.cfg.Chain(chainName)
	if !ok {
		return c.failPurchase(MsgUnsupportedChain)
	}
	tokenSymbol := form.Token
	if tokenSymbol == "" {
		tokenSymbol = c.token
	}
	token, ok := c.cfg.Token(tokenSymbol)
	if !ok {
		return c.failPurchase(MsgUnsupportedToken)
	}

	c.notify()

	resp, err := c.backend.BuyCrypto(ctx, api.BuyCryptoRequest{
		CryptoAmount: amount.InexactFloat64(),
		Phone:        sess.PhoneNumber,
		Chain:        chain.Name,
		TokenType:    token.Symbol,
	})

	var msg string
	switch {
	case err != nil:
		logger.ErrorCF("dashboard", "Purchase failed", map[string]any{
			"chain": chain.Name,
			"token": token.Symbol,
			"error": err.Error(),
		})
		msg = err.Error()
		if msg == "" {
			msg = MsgPurchaseFailed
		}
	case resp != nil && resp.Success && resp.Data != nil:
		success := resp.Data.Instructions
		if success == "" {
			success = MsgPurchaseInitiated
		}
		c.mu.Lock()
		c.purchase = FormStatus{Success: success}
		c.mu.Unlock()
		c.notify()

		logger.InfoCF("dashboard", "Purchase initiated", map[string]any{
			"transaction_id": resp.Data.TransactionID,
			"chain":          chain.Name,
			"token":          token.Symbol,
		})
		c.refreshBalance(ctx)
		return nil
	default:
		msg = MsgPurchaseFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
	}
	return c.failPurchase(msg)
}

func (c *Controller) failPurchase(msg string) error {
	c.mu.Lock()
	c.purchase = FormStatus{Error: msg}
	c.mu.Unlock()
	c.notify()
	return formError(msg)
}

func (c *Controller) refreshBalance(ctx context.Context) {
	if err := c.LoadBalance(ctx); err != nil {
		logger.WarnCF("dashboard", "Balance refresh failed", map[string]any{"error": err.Error()})
	}
}
