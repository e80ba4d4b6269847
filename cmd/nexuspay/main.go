// NexusPay - Pay M-Pesa bills with crypto from the terminal
// License: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/session"
	"github.com/nexuspay/nexuspay/pkg/tui"
)

var version = "dev"

const logo = "₦"

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in, run 'nexuspay login' first")

// cli carries the global flags and what PersistentPreRunE builds from them.
type cli struct {
	configPath string
	debug      bool
	output     string

	cfg    *config.Config
	store  session.Store
	client *api.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, c := newRootCommand()
	if err := execute(ctx, root, c); err != nil {
		stop()
		os.Exit(1)
	}
}

// execute runs root and then releases what setup opened, on failure too.
func execute(ctx context.Context, root *cobra.Command, c *cli) error {
	defer c.teardown()
	return root.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "nexuspay",
		Short:         "Pay M-Pesa paybills and tills with crypto",
		Version:       version,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runScreens(cmd, nav.Landing)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", config.DefaultPath(), "config file (.json, .yaml or .yml)")
	flags.BoolVar(&c.debug, "debug", false, "enable debug logging")
	flags.StringVarP(&c.output, "output", "o", "text", "output format: text, json or yaml")

	root.AddCommand(
		newOnboardCommand(c),
		newLoginCommand(c),
		newSignupCommand(c),
		newVerifyCommand(c),
		newLogoutCommand(c),
		newStatusCommand(c),
		newBalanceCommand(c),
		newReceiveCommand(c),
		newPayCommand(c),
		newBuyCommand(c),
		newSendCommand(c),
		newDepositCommand(c),
		newWithdrawCommand(c),
		newTxCommand(c),
		newProfileCommand(c),
		newDashboardCommand(c),
		newWatchCommand(c),
	)
	return root, c
}

func (c *cli) setup() error {
	switch c.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	level := cfg.Logging.Level
	if c.debug {
		level = "debug"
	}
	if err := logger.Init(logger.Options{Level: level, Format: cfg.Logging.Format, File: cfg.LogFile()}); err != nil {
		return err
	}

	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	c.store = store
	c.client = api.NewFromConfig(cfg, store)

	logger.DebugCF("cli", "Ready", map[string]any{
		"config":  c.configPath,
		"backend": cfg.Session.Backend,
		"api":     c.client.BaseURL(),
	})
	return nil
}

// teardown closes the session store if setup got that far.
func (c *cli) teardown() {
	if closer, ok := c.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.WarnCF("cli", "Closing the session store failed", map[string]any{"error": err.Error()})
		}
	}
}

// requireSession returns the stored session or errNotSignedIn.
func (c *cli) requireSession() (session.Session, error) {
	sess, err := c.store.Get()
	if err != nil {
		return session.Session{}, err
	}
	if !sess.Authenticated() {
		return session.Session{}, errNotSignedIn
	}
	return sess, nil
}

// runScreens hands the terminal to the interactive screens starting at route.
func (c *cli) runScreens(cmd *cobra.Command, route string) error {
	prompter := tui.NewPrompter()
	defer prompter.Close()

	app := &tui.App{
		Config: c.cfg,
		Client: c.client,
		Store:  c.store,
		In:     prompter,
		Out:    cmd.OutOrStdout(),
	}
	return app.Run(cmd.Context(), route)
}

// discardNav is the navigator for one-shot commands, which have no screens
// to move between.
func discardNav() nav.Navigator {
	return nav.Func(func(route string) {
		logger.DebugCF("cli", "Ignoring navigation", map[string]any{"route": route})
	})
}
