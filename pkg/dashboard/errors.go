package dashboard

import "errors"

var (
	// ErrNotAuthenticated is returned by Activate when no session token is stored
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoWallet is returned when the session carries no wallet address
	ErrNoWallet = errors.New("no wallet address in session")

	// ErrBusy is returned while the same kind of request is in flight
	ErrBusy = errors.New("request already in progress")

	// ErrNoPage is returned when paging past either end of the history
	ErrNoPage = errors.New("no such page")

	// ErrHistoryUnavailable is returned when the backend answers success=false
	ErrHistoryUnavailable = errors.New("transaction history unavailable")
)

// User-facing messages.
const (
	MsgBalanceNotLoaded    = "Balance not loaded"
	MsgInvalidAmount       = "Please enter a valid amount"
	MsgInsufficientBalance = "Insufficient USDC balance"
	MsgInvalidTarget       = "Payment target must be paybill or till"
	MsgTargetRequired      = "Please enter a paybill or till number"
	MsgPaymentFailed       = "Payment failed"
	MsgPhoneUnavailable    = "Phone number not available"
	MsgInvalidCryptoAmount = "Please enter a valid crypto amount"
	MsgUnsupportedChain    = "Unsupported chain"
	MsgUnsupportedToken    = "Unsupported token"
	MsgPurchaseInitiated   = "Crypto purchase initiated successfully!"
	MsgPurchaseFailed      = "Purchase failed"
	MsgHistoryFailed       = "Failed to load transaction history"
	MsgTransactionsFailed  = "Failed to load transactions"
)

// FormError is a message for one of the dashboard forms.
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

func formError(msg string) error { return &FormError{Message: msg} }
