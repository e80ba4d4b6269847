package auth

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidStep is returned when an operation does not apply to the current step
	ErrInvalidStep = errors.New("operation not valid in current step")

	// ErrBusy is returned while a backend call of the same flow is in flight
	ErrBusy = errors.New("request already in progress")

	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("flow closed")

	// ErrResendNotReady is returned when Resend is called before the countdown ends
	ErrResendNotReady = errors.New("resend not available yet")

	// ErrDigitIndex is returned for a code position outside 0..5
	ErrDigitIndex = errors.New("code position out of range")
)

// Form field keys used in FieldErrors.
const (
	FieldPhone    = "phoneNumber"
	FieldPassword = "password"
	FieldEmail    = "email"
	FieldConfirm  = "confirmPassword"
	FieldOTP      = "otp"
	FieldGeneral  = "general"
)

// User-facing messages.
const (
	MsgPhoneRequired    = "Phone number is required"
	MsgPhoneInvalid     = "Please enter a valid Kenyan phone number"
	MsgPasswordRequired = "Password is required"
	MsgPasswordShort    = "Password must be at least 8 characters"
	MsgPasswordMismatch = "Passwords do not match"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgIncompleteCode   = "Please enter the complete 6-digit code"
	MsgInvalidCode      = "Invalid verification code. Please try again."
	MsgVerifyFailed     = "Verification failed. Please try again."
	MsgResendFailed     = "Failed to resend code. Please try again."
	MsgDispatchFailed   = "Failed to send verification code. Please try again."
	MsgPhoneMissing     = "Phone number is missing. Please go back and try again."
	MsgRegisterFailed   = "Registration failed"
	MsgRegisterError    = "An error occurred during registration. Please try again."
)

// FieldErrors maps a form field to the message shown next to it.
// FieldGeneral holds errors that belong to no single field.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for field, or "".
func (fe FieldErrors) Get(field string) string {
	return fe[field]
}

func (fe FieldErrors) clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}
