package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/phone"
)

// State is a snapshot of a flow for rendering.
type State struct {
	Step        Step
	PhoneNumber string
	MaskedPhone string
	Digits      [CodeLength]string
	Focus       int
	Errors      FieldErrors
	Loading     bool
	Resending   bool
	CanResend   bool
	TimeLeft    int
}

// TimeLeftLabel renders the resend countdown as m:ss.
func (s State) TimeLeftLabel() string {
	return clock.FormatMMSS(s.TimeLeft)
}

// flow is the code-entry machinery shared by LoginFlow and VerifyFlow.
// Its mutex is never held across a backend call or a navigation.
type flow struct {
	backend   Backend
	nav       nav.Navigator
	clock     clock.Clock
	opts      Options
	countdown *clock.Countdown

	// redirectAfter is the delay between success and the dashboard; zero
	// navigates at once.
	redirectAfter time.Duration

	mu        sync.Mutex
	step      Step
	phone     string
	password  string
	entry     codeEntry
	errors    FieldErrors
	loading   bool
	resending bool
	closed    bool
	gen       uint64
	redirect  clock.Timer
}

func newFlow(b Backend, n nav.Navigator, opts Options, start Step) *flow {
	opts = opts.withDefaults()
	f := &flow{
		backend: b,
		nav:     n,
		clock:   opts.Clock,
		opts:    opts,
		step:    start,
		errors:  FieldErrors{},
	}
	f.countdown = clock.NewCountdown(opts.Clock, time.Second, func(int) { f.notify() })
	return f
}

func (f *flow) notify() {
	if f.opts.OnChange != nil {
		f.opts.OnChange()
	}
}

func (f *flow) state() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	remaining := f.countdown.Remaining()
	_, inOTP := f.step.(OTPStep)
	return State{
		Step:        f.step,
		PhoneNumber: f.phone,
		MaskedPhone: phone.Mask(f.phone),
		Digits:      f.entry.digits,
		Focus:       f.entry.focus,
		Errors:      f.errors.clone(),
		Loading:     f.loading,
		Resending:   f.resending,
		CanResend:   inOTP && remaining == 0 && !f.resending,
		TimeLeft:    remaining,
	}
}

// requireOTPLocked fails unless the flow is open and waiting for a code.
func (f *flow) requireOTPLocked() error {
	if f.closed {
		return ErrClosed
	}
	switch s := f.step.(type) {
	case OTPStep:
		return nil
	case CredentialsStep, SuccessStep:
		return fmt.Errorf("%w: %s", ErrInvalidStep, s)
	default:
		return ErrInvalidStep
	}
}

func (f *flow) enterDigit(ctx context.Context, i int, v string) error {
	f.mu.Lock()
	if err := f.requireOTPLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.entry.verifying {
		f.mu.Unlock()
		return ErrBusy
	}
	if i < 0 || i >= CodeLength {
		f.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDigitIndex, i)
	}
	if !isDigitInput(v) {
		f.mu.Unlock()
		return nil
	}

	f.entry.set(i, v)
	delete(f.errors, FieldOTP)

	// Filling the last empty box submits the code. The verifying flag makes
	// sure that happens once per complete code.
	var (
		code     string
		number   string
		startErr error
		started  bool
	)
	if f.entry.complete() {
		code, startErr = f.beginVerifyLocked()
		number = f.phone
		started = startErr == nil
	}
	f.mu.Unlock()
	f.notify()

	if startErr != nil {
		return startErr
	}
	if !started {
		return nil
	}
	return f.finishVerify(ctx, number, code)
}

func (f *flow) backspace(i int) error {
	f.mu.Lock()
	if err := f.requireOTPLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.entry.verifying {
		f.mu.Unlock()
		return ErrBusy
	}
	if i < 0 || i >= CodeLength {
		f.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDigitIndex, i)
	}
	f.entry.backspace(i)
	delete(f.errors, FieldOTP)
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *flow) verify(ctx context.Context) error {
	f.mu.Lock()
	if err := f.requireOTPLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.entry.verifying {
		f.mu.Unlock()
		return ErrBusy
	}
	code, err := f.beginVerifyLocked()
	number := f.phone
	f.mu.Unlock()
	f.notify()

	if err != nil {
		return err
	}
	return f.finishVerify(ctx, number, code)
}

// beginVerifyLocked checks the code locally and marks verification in flight.
func (f *flow) beginVerifyLocked() (string, error) {
	if !f.entry.complete() {
		f.errors = FieldErrors{FieldOTP: MsgIncompleteCode}
		return "", f.errors.clone()
	}
	if f.phone == "" {
		f.errors = FieldErrors{FieldGeneral: MsgPhoneMissing}
		return "", f.errors.clone()
	}
	f.entry.verifying = true
	f.loading = true
	f.errors = FieldErrors{}
	return f.entry.code(), nil
}

func (f *flow) finishVerify(ctx context.Context, number, code string) error {
	resp, err := f.backend.VerifyOTP(ctx, api.VerifyOTPRequest{PhoneNumber: number, OTP: code})

	f.mu.Lock()
	f.entry.verifying = false
	f.loading = false
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}

	var (
		result      error
		navigateNow bool
	)
	switch {
	case err != nil:
		logger.WarnCF("auth", "Code verification failed", map[string]any{
			"phone": phone.Mask(number),
			"error": err.Error(),
		})
		msg := err.Error()
		if msg == "" {
			msg = MsgVerifyFailed
		}
		result = f.rejectCodeLocked(msg)
	case resp != nil && resp.Success && resp.Data != nil:
		navigateNow = f.succeedLocked(resp.Data)
	default:
		result = f.rejectCodeLocked(MsgInvalidCode)
	}
	f.mu.Unlock()
	f.notify()

	if navigateNow {
		f.nav.Navigate(nav.Dashboard)
	}
	return result
}

func (f *flow) rejectCodeLocked(msg string) error {
	f.entry.reset()
	f.errors = FieldErrors{FieldOTP: msg}
	return f.errors.clone()
}

// succeedLocked moves to SuccessStep. It reports whether the caller should
// navigate immediately; otherwise a redirect timer has been armed.
func (f *flow) succeedLocked(data *api.AuthData) bool {
	f.step = SuccessStep{PhoneNumber: data.PhoneNumber, WalletAddress: data.WalletAddress}
	f.countdown.Stop()
	f.password = ""

	logger.InfoCF("auth", "Phone number verified", map[string]any{
		"phone": phone.Mask(data.PhoneNumber),
	})

	if f.redirectAfter <= 0 {
		return true
	}
	gen := f.gen
	f.redirect = f.clock.AfterFunc(f.redirectAfter, func() { f.fireRedirect(gen) })
	return false
}

func (f *flow) fireRedirect(gen uint64) {
	f.mu.Lock()
	ok := !f.closed && gen == f.gen
	f.redirect = nil
	f.mu.Unlock()
	if ok {
		f.nav.Navigate(nav.Dashboard)
	}
}

func (f *flow) resend(ctx context.Context) error {
	f.mu.Lock()
	if err := f.requireOTPLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.resending || f.loading || f.entry.verifying {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.countdown.Remaining() > 0 {
		f.mu.Unlock()
		return ErrResendNotReady
	}
	if f.phone == "" {
		f.errors = FieldErrors{FieldGeneral: MsgPhoneMissing}
		errs := f.errors.clone()
		f.mu.Unlock()
		f.notify()
		return errs
	}
	f.resending = true
	f.errors = FieldErrors{}
	number, password := f.phone, f.password
	f.mu.Unlock()
	f.notify()

	_, err := f.backend.Login(ctx, api.LoginRequest{PhoneNumber: number, Password: password})

	f.mu.Lock()
	f.resending = false
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}

	var result error
	if err != nil {
		logger.WarnCF("auth", "Failed to resend code", map[string]any{
			"phone": phone.Mask(number),
			"error": err.Error(),
		})
		f.errors = FieldErrors{FieldGeneral: MsgResendFailed}
		result = f.errors.clone()
	} else if _, ok := f.step.(OTPStep); ok {
		f.entry.reset()
		f.countdown.Start(f.opts.ResendAfter)
		logger.InfoCF("auth", "Verification code resent", map[string]any{
			"phone": phone.Mask(number),
		})
	}
	f.mu.Unlock()
	f.notify()
	return result
}

func (f *flow) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.gen++
	f.password = ""
	f.countdown.Stop()
	if f.redirect != nil {
		f.redirect.Stop()
		f.redirect = nil
	}
}

// dispatchError folds a failed call and a success=false answer into one error.
func dispatchError(resp *api.LoginResponse, err error) error {
	if err != nil {
		return err
	}
	if resp != nil && !resp.Success {
		if resp.Message != "" {
			return errors.New(resp.Message)
		}
		return errors.New("code dispatch rejected")
	}
	return nil
}
