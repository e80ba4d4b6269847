package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NumericString is a decimal value that the backend may send either as a
// JSON string ("12.50") or as a JSON number (12.5).
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NumericString(strings.TrimSpace(s))
		return nil
	}

	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("numeric string: %w", err)
	}
	*n = NumericString(f.String())
	return nil
}

func (n NumericString) String() string { return string(n) }

// Float64 parses the value, returning 0 for an empty string.
func (n NumericString) Float64() (float64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(n), 64)
}

// Auth

type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		PhoneNumber string `json:"phoneNumber"`
	} `json:"data,omitempty"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

type AuthData struct {
	Token         string `json:"token"`
	WalletAddress string `json:"walletAddress"`
	PhoneNumber   string `json:"phoneNumber"`
}

type VerifyOTPResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    *AuthData `json:"data,omitempty"`
}

const (
	VerifyWithPhone = "phone"
	VerifyWithEmail = "email"
)

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	VerifyWith  string `json:"verifyWith"`
}

// GenericResponse is the envelope of endpoints whose payload the client
// does not interpret.
type GenericResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Balances

type USDCBalance struct {
	BalanceInUSDC NumericString `json:"balanceInUSDC"`
	BalanceInKES  NumericString `json:"balanceInKES"`
	Rate          float64       `json:"rate"`
}

// M-Pesa

const (
	TargetPaybill = "paybill"
	TargetTill    = "till"
)

type PayWithCryptoRequest struct {
	Amount        float64 `json:"amount"`
	CryptoAmount  float64 `json:"cryptoAmount"`
	TargetType    string  `json:"targetType"`
	TargetNumber  string  `json:"targetNumber"`
	AccountNumber string  `json:"accountNumber,omitempty"`
	Chain         string  `json:"chain"`
	TokenType     string  `json:"tokenType"`
	Description   string  `json:"description,omitempty"`
}

type PaymentReceipt struct {
	TransactionID         string `json:"transactionId"`
	CryptoTransactionHash string `json:"cryptoTransactionHash"`
	MpesaTransactionID    string `json:"mpesaTransactionId"`
	Status                string `json:"status"`
	Instructions          string `json:"instructions"`
}

type PayWithCryptoResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *PaymentReceipt `json:"data,omitempty"`
}

type BuyCryptoRequest struct {
	CryptoAmount float64 `json:"cryptoAmount"`
	Phone        string  `json:"phone"`
	Chain        string  `json:"chain"`
	TokenType    string  `json:"tokenType"`
}

type PurchaseReceipt struct {
	TransactionID string `json:"transactionId,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

type BuyCryptoResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    *PurchaseReceipt `json:"data,omitempty"`
}

type PayPaybillRequest struct {
	Amount        float64 `json:"amount"`
	Phone         string  `json:"phone"`
	PaybillNumber string  `json:"paybillNumber"`
	AccountNumber string  `json:"accountNumber"`
}

type PayTillRequest struct {
	Amount     float64 `json:"amount"`
	Phone      string  `json:"phone"`
	TillNumber string  `json:"tillNumber"`
}

// MpesaTransferRequest is the body of deposit and withdraw.
type MpesaTransferRequest struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
}

// Tokens

type SendTokenRequest struct {
	RecipientIdentifier string `json:"recipientIdentifier"`
	Amount              string `json:"amount"`
	SenderAddress       string `json:"senderAddress"`
	Chain               string `json:"chain"`
}

// Transactions

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

type Transaction struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Status           string   `json:"status"`
	Amount           float64  `json:"amount"`
	TokenAmount      *float64 `json:"tokenAmount,omitempty"`
	TokenSymbol      string   `json:"tokenSymbol,omitempty"`
	AmountInKES      *float64 `json:"amountInKES,omitempty"`
	AmountInUSD      *float64 `json:"amountInUSD,omitempty"`
	Chain            string   `json:"chain,omitempty"`
	TxHash           string   `json:"txHash,omitempty"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty"`
	Direction        string   `json:"direction"`
	Description      string   `json:"description,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
	TargetType       string   `json:"targetType,omitempty"`
	TargetNumber     string   `json:"targetNumber,omitempty"`
	AccountNumber    string   `json:"accountNumber,omitempty"`
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

type TransactionHistoryResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    *TransactionPage `json:"data,omitempty"`
}

type TransactionDetailResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *Transaction `json:"data,omitempty"`
}

// Profile

type Profile struct {
	ID            string `json:"id,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

type ProfileResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Profile `json:"data,omitempty"`
}

type UpdateProfileRequest struct {
	Email string `json:"email,omitempty"`
}
