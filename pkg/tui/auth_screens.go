package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nexuspay/nexuspay/pkg/auth"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

// codeFlow is what LoginFlow and VerifyFlow have in common.
type codeFlow interface {
	State() auth.State
	EnterDigit(ctx context.Context, i int, v string) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
}

// RunLogin walks the user through the login flow until the code is verified.
func RunLogin(ctx context.Context, in LineReader, out io.Writer, flow *auth.LoginFlow) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := flow.State()

		switch step := st.Step.(type) {
		case auth.CredentialsStep:
			fmt.Fprintln(out, "Sign in to NexusPay")
			phoneInput, err := in.ReadLine("Phone number (empty to go back): ")
			if err != nil {
				return err
			}
			if phoneInput == "" {
				if err := flow.Back(); err != nil {
					return err
				}
				return ErrAborted
			}
			password, err := in.ReadSecret("Password: ")
			if err != nil {
				return err
			}
			printErrors(out, flow.SubmitCredentials(ctx, phoneInput, password))

		case auth.OTPStep:
			if err := codePrompt(ctx, in, out, flow, flow.Back); err != nil {
				return err
			}

		case auth.SuccessStep:
			fmt.Fprintf(out, "Verified. Wallet %s\n", wallet.Shorten(step.WalletAddress))
			return nil

		default:
			return fmt.Errorf("unknown login step %v", step)
		}
	}
}

// RunVerify reads codes for the post-signup verification screen. It returns
// nil once verified, or ErrAborted when the user goes back.
func RunVerify(ctx context.Context, in LineReader, out io.Writer, flow *auth.VerifyFlow) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := flow.State().Step.(auth.SuccessStep); ok {
			fmt.Fprintln(out, "Phone verified.")
			return nil
		}
		back := false
		if err := codePrompt(ctx, in, out, flow, func() error {
			flow.Back()
			back = true
			return nil
		}); err != nil {
			return err
		}
		if back {
			return ErrAborted
		}
	}
}

// codePrompt asks for one line of code input and applies it: a code, or
// r to resend, or b to go back.
func codePrompt(ctx context.Context, in LineReader, out io.Writer, flow codeFlow, back func() error) error {
	st := flow.State()
	if st.CanResend {
		fmt.Fprintf(out, "Enter the 6-digit code sent to %s ([r]esend, [b]ack)\n", st.MaskedPhone)
	} else {
		fmt.Fprintf(out, "Enter the 6-digit code sent to %s (resend in %s, [b]ack)\n", st.MaskedPhone, st.TimeLeftLabel())
	}

	line, err := in.ReadLine("Code: ")
	if err != nil {
		return err
	}

	switch strings.ToLower(line) {
	case "r", "resend":
		err := flow.Resend(ctx)
		if errors.Is(err, auth.ErrResendNotReady) {
			fmt.Fprintf(out, "You can request a new code in %s\n", flow.State().TimeLeftLabel())
			return nil
		}
		if err == nil {
			fmt.Fprintln(out, "A new code is on its way.")
		}
		printErrors(out, err)
		return nil
	case "b", "back":
		printErrors(out, back())
		return nil
	}

	printErrors(out, EnterCode(ctx, flow, line))
	return nil
}

// EnterCode types the digits of line into the code boxes. A short code is
// submitted explicitly so the user sees why it was rejected.
func EnterCode(ctx context.Context, flow codeFlow, line string) error {
	var digits []string
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits = append(digits, string(r))
		}
	}
	if len(digits) > auth.CodeLength {
		digits = digits[:auth.CodeLength]
	}

	// Clear the boxes past the typed digits first so that a shorter code
	// never completes with leftovers from an earlier attempt.
	for i := auth.CodeLength - 1; i >= len(digits); i-- {
		if err := flow.EnterDigit(ctx, i, ""); err != nil {
			return err
		}
	}
	for i, d := range digits {
		if err := flow.EnterDigit(ctx, i, d); err != nil {
			return err
		}
	}
	if len(digits) < auth.CodeLength {
		return flow.Verify(ctx)
	}
	return nil
}

// RunSignup collects the signup form until the backend accepts it.
func RunSignup(ctx context.Context, in LineReader, out io.Writer, s *auth.Signup) error {
	fmt.Fprintln(out, "Create your NexusPay account")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			form auth.SignupForm
			err  error
		)
		if form.PhoneNumber, err = in.ReadLine("Phone number (empty to go back): "); err != nil {
			return err
		}
		if form.PhoneNumber == "" {
			return ErrAborted
		}
		if form.Email, err = in.ReadLine("Email: "); err != nil {
			return err
		}
		if form.Password, err = in.ReadSecret("Password: "); err != nil {
			return err
		}
		if form.ConfirmPassword, err = in.ReadSecret("Confirm password: "); err != nil {
			return err
		}

		err = s.Submit(ctx, form)
		if err == nil {
			return nil
		}
		printErrors(out, err)
	}
}

func printErrors(out io.Writer, err error) {
	if err == nil {
		return
	}
	var fe auth.FieldErrors
	if !errors.As(err, &fe) {
		fmt.Fprintf(out, "  ! %v\n", err)
		return
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  ! %s\n", fe[k])
	}
}
