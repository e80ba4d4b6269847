package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/auth"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

func newProfileCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the account profile",
	}
	cmd.AddCommand(newProfileShowCommand(c), newProfileUpdateCommand(c))
	return cmd
}

func newProfileShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			resp, err := c.client.GetProfile(cmd.Context())
			return c.renderProfile(cmd, resp, err)
		},
	}
}

func newProfileUpdateCommand(c *cli) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the account email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			email = strings.TrimSpace(email)
			if !auth.ValidEmail(email) {
				return errors.New(auth.MsgEmailInvalid)
			}
			resp, err := c.client.UpdateProfile(cmd.Context(), api.UpdateProfileRequest{Email: email})
			return c.renderProfile(cmd, resp, err)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) renderProfile(cmd *cobra.Command, resp *api.ProfileResponse, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success || resp.Data == nil {
		if resp.Message != "" {
			return errors.New(resp.Message)
		}
		return errors.New("profile unavailable")
	}
	p := *resp.Data
	return c.render(cmd, p, func(w io.Writer) {
		fmt.Fprintf(w, "Phone:  %s\n", p.PhoneNumber)
		if p.Email != "" {
			fmt.Fprintf(w, "Email:  %s\n", p.Email)
		}
		if p.WalletAddress != "" {
			fmt.Fprintf(w, "Wallet: %s\n", wallet.Checksum(p.WalletAddress))
		}
	})
}
