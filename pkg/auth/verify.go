package auth

import (
	"context"

	"github.com/nexuspay/nexuspay/pkg/nav"
)

// resendPassword is what the verify screen sends to /auth/login to trigger a
// new code; it has no password of its own.
const resendPassword = "resend"

// VerifyFlow is code entry after signup. The countdown starts on creation
// and a verified code goes straight to the dashboard.
type VerifyFlow struct {
	f *flow
}

func NewVerifyFlow(b Backend, n nav.Navigator, phoneNumber string, opts Options) *VerifyFlow {
	f := newFlow(b, n, opts, OTPStep{PhoneNumber: phoneNumber})
	f.phone = phoneNumber
	f.password = resendPassword
	f.countdown.Start(f.opts.ResendAfter)
	return &VerifyFlow{f: f}
}

func (v *VerifyFlow) State() State { return v.f.state() }

func (v *VerifyFlow) EnterDigit(ctx context.Context, i int, d string) error {
	return v.f.enterDigit(ctx, i, d)
}

func (v *VerifyFlow) Backspace(i int) error { return v.f.backspace(i) }

func (v *VerifyFlow) Verify(ctx context.Context) error { return v.f.verify(ctx) }

func (v *VerifyFlow) Resend(ctx context.Context) error { return v.f.resend(ctx) }

// Back leaves for the signup screen.
func (v *VerifyFlow) Back() {
	v.f.close()
	v.f.nav.Navigate(nav.Signup)
}

func (v *VerifyFlow) Close() { v.f.close() }
