// NexusPay - Pay M-Pesa bills with crypto from the terminal
// License: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/config"
)

func newOnboardCommand(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		// The config may not exist or parse yet, so skip the shared setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onboard(cmd.OutOrStdout(), c.configPath, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func onboard(out io.Writer, configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(out, "Config already exists at %s\n", configPath)
		fmt.Fprintln(out, "Use existing config. Run 'nexuspay onboard --force' to overwrite.")
		if _, err := config.LoadConfig(configPath); err != nil {
			fmt.Fprintf(out, "Warning: Could not load config: %v\n", err)
		}
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(out, "Created config at %s\n", configPath)

	fmt.Fprintf(out, "%s nexuspay is ready!\n", logo)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Point api.base_url in", configPath, "at your NexusPay backend")
	fmt.Fprintf(out, "     (currently %s)\n", cfg.API.BaseURL)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  2. Create an account: nexuspay signup")
	fmt.Fprintln(out, "     or sign in:        nexuspay login")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  3. Open the dashboard: nexuspay dashboard")
	return nil
}
