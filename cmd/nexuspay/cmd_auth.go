package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/auth"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/phone"
	"github.com/nexuspay/nexuspay/pkg/tui"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

func newLoginCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with phone number, password and a one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompter := tui.NewPrompter()
			defer prompter.Close()

			router := tui.NewRouter()
			flow := auth.NewLoginFlow(c.client, router, auth.OptionsFromConfig(c.cfg))
			defer flow.Close()

			err := tui.RunLogin(cmd.Context(), prompter, cmd.OutOrStdout(), flow)
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in. Run 'nexuspay dashboard' to open your wallet.")
			return nil
		},
	}
}

func newSignupCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account and verify the phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompter := tui.NewPrompter()
			defer prompter.Close()

			router := tui.NewRouter()
			err := tui.RunSignup(cmd.Context(), prompter, cmd.OutOrStdout(), auth.NewSignup(c.client, router))
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}

			number := verifyPhone(router.Next())
			if number == "" {
				return nil
			}
			return c.verify(cmd, prompter, number)
		},
	}
}

func newVerifyCommand(c *cli) *cobra.Command {
	var number string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Enter the code sent after signup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized := phone.Normalize(number)
			if !phone.Valid(normalized) {
				return errors.New(auth.MsgPhoneInvalid)
			}
			prompter := tui.NewPrompter()
			defer prompter.Close()
			return c.verify(cmd, prompter, normalized)
		},
	}
	cmd.Flags().StringVar(&number, "phone", "", "phone number the code was sent to")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func (c *cli) verify(cmd *cobra.Command, in tui.LineReader, number string) error {
	flow := auth.NewVerifyFlow(c.client, discardNav(), number, auth.OptionsFromConfig(c.cfg))
	defer flow.Close()

	err := tui.RunVerify(cmd.Context(), in, cmd.OutOrStdout(), flow)
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	return err
}

// verifyPhone pulls the phone number out of a verify screen route.
func verifyPhone(route string) string {
	u, err := url.Parse(route)
	if err != nil || u.Path != nav.Verify {
		return ""
	}
	return u.Query().Get("phone")
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the backend and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.client.Logout(cmd.Context())
			if err != nil {
				// The local session is cleared regardless.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: backend logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

type statusView struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	PhoneNumber   string `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty" yaml:"walletAddress,omitempty"`
	API           string `json:"api" yaml:"api"`
	SessionStore  string `json:"sessionStore" yaml:"sessionStore"`
}

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.store.Get()
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			v := statusView{
				Authenticated: sess.Authenticated(),
				PhoneNumber:   sess.PhoneNumber,
				WalletAddress: wallet.Checksum(sess.WalletAddress),
				API:           c.client.BaseURL(),
				SessionStore:  c.cfg.Session.Backend,
			}
			return c.render(cmd, v, func(w io.Writer) {
				if !v.Authenticated {
					fmt.Fprintln(w, "Not signed in.")
				} else {
					fmt.Fprintf(w, "Signed in as %s\n", phone.Mask(v.PhoneNumber))
					fmt.Fprintf(w, "Wallet:  %s\n", v.WalletAddress)
				}
				fmt.Fprintf(w, "API:     %s\n", v.API)
				fmt.Fprintf(w, "Session: %s\n", v.SessionStore)
			})
		},
	}
}
