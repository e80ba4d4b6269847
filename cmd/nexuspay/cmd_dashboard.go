package main

import (
	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/nav"
)

func newDashboardCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the full-screen dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route := nav.Dashboard
			if !c.store.IsAuthenticated() {
				route = nav.Login
			}
			return c.runScreens(cmd, route)
		},
	}
}
