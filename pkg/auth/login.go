package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/phone"
)

// LoginFlow drives the credentials -> otp -> success screen.
type LoginFlow struct {
	f *flow
}

func NewLoginFlow(b Backend, n nav.Navigator, opts Options) *LoginFlow {
	f := newFlow(b, n, opts, CredentialsStep{})
	f.redirectAfter = f.opts.RedirectDelay
	return &LoginFlow{f: f}
}

func (l *LoginFlow) State() State { return l.f.state() }

func (l *LoginFlow) Step() Step {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	return l.f.step
}

// SubmitCredentials validates the form and asks the backend to send a code.
// Unless StrictDispatch is set, a failed dispatch is logged and the flow
// still moves to code entry.
func (l *LoginFlow) SubmitCredentials(ctx context.Context, phoneInput, password string) error {
	f := l.f

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	switch s := f.step.(type) {
	case CredentialsStep:
	case OTPStep, SuccessStep:
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidStep, s)
	default:
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}

	number, errs := validateCredentials(phoneInput, password)
	f.phone = number
	f.password = password
	if len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		f.notify()
		return errs.clone()
	}
	f.errors = FieldErrors{}
	f.loading = true
	f.mu.Unlock()
	f.notify()

	resp, err := f.backend.Login(ctx, api.LoginRequest{PhoneNumber: number, Password: password})
	dispatchErr := dispatchError(resp, err)

	f.mu.Lock()
	f.loading = false
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if dispatchErr != nil {
		if f.opts.StrictDispatch {
			msg := dispatchErr.Error()
			if msg == "" {
				msg = MsgDispatchFailed
			}
			f.errors = FieldErrors{FieldGeneral: msg}
			result := f.errors.clone()
			f.mu.Unlock()
			f.notify()
			return result
		}
		logger.WarnCF("auth", "Code dispatch failed, continuing to code entry", map[string]any{
			"phone": phone.Mask(number),
			"error": dispatchErr.Error(),
		})
	}

	f.step = OTPStep{PhoneNumber: number}
	f.entry.reset()
	f.countdown.Start(f.opts.ResendAfter)
	f.mu.Unlock()

	logger.InfoCF("auth", "Awaiting verification code", map[string]any{
		"phone": phone.Mask(number),
	})
	f.notify()
	return nil
}

// EnterDigit sets code position i to v, which must be "" or one digit;
// anything else is ignored. Completing the code submits it.
func (l *LoginFlow) EnterDigit(ctx context.Context, i int, v string) error {
	return l.f.enterDigit(ctx, i, v)
}

func (l *LoginFlow) Backspace(i int) error { return l.f.backspace(i) }

func (l *LoginFlow) Verify(ctx context.Context) error { return l.f.verify(ctx) }

func (l *LoginFlow) Resend(ctx context.Context) error { return l.f.resend(ctx) }

// Back returns from code entry to the credentials form. On the credentials
// form it leaves the screen.
func (l *LoginFlow) Back() error {
	f := l.f
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	switch s := f.step.(type) {
	case CredentialsStep:
		f.mu.Unlock()
		f.nav.Navigate(nav.Landing)
		return nil
	case OTPStep:
		if f.loading || f.resending {
			f.mu.Unlock()
			return ErrBusy
		}
		f.step = CredentialsStep{}
		f.entry.reset()
		f.errors = FieldErrors{}
		f.countdown.Stop()
		f.mu.Unlock()
		f.notify()
		return nil
	case SuccessStep:
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidStep, s)
	default:
		f.mu.Unlock()
		return ErrInvalidStep
	}
}

// Close stops every timer the flow owns. Later callbacks do nothing.
func (l *LoginFlow) Close() { l.f.close() }

func validateCredentials(phoneInput, password string) (string, FieldErrors) {
	errs := FieldErrors{}
	number, msg := validatePhone(phoneInput)
	if msg != "" {
		errs[FieldPhone] = msg
	}
	if password == "" {
		errs[FieldPassword] = MsgPasswordRequired
	}
	return number, errs
}

// validatePhone normalizes input and returns the message to show, if any.
func validatePhone(input string) (string, string) {
	if strings.TrimSpace(input) == "" {
		return "", MsgPhoneRequired
	}
	number := phone.Normalize(input)
	if !phone.Valid(number) {
		return number, MsgPhoneInvalid
	}
	return number, ""
}
