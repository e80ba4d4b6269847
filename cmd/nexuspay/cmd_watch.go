package main

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/cobra"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/logger"
)

func newWatchCommand(c *cli) *cobra.Command {
	var (
		schedule string
		chain    string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the balance on a cron schedule",
		Example: `  nexuspay watch --schedule "*/5 * * * *"
  nexuspay watch --schedule "@hourly" --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !gronx.New().IsValid(schedule) {
				return fmt.Errorf("invalid schedule %q", schedule)
			}
			if _, err := c.requireSession(); err != nil {
				return err
			}
			if err := c.useChain(chain); err != nil {
				return err
			}

			w := &watcher{
				schedule: schedule,
				count:    count,
				now:      time.Now,
				sleep:    sleepCtx,
			}
			return w.run(cmd.Context(), func(ctx context.Context) error {
				return c.showBalance(ctx, cmd)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&schedule, "schedule", "*/5 * * * *", "cron expression")
	f.StringVar(&chain, "chain", "", "chain to query (default from config)")
	f.IntVar(&count, "count", 0, "stop after this many refreshes (0 runs until interrupted)")
	return cmd
}

// watcher runs tick at every due time of a cron schedule.
type watcher struct {
	schedule string
	count    int
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) bool
}

func (w *watcher) run(ctx context.Context, tick func(context.Context) error) error {
	for done := 0; w.count <= 0 || done < w.count; done++ {
		next, err := gronx.NextTickAfter(w.schedule, w.now(), false)
		if err != nil {
			return fmt.Errorf("next tick: %w", err)
		}
		logger.DebugCF("watch", "Waiting for next refresh", map[string]any{"at": next.Format(time.RFC3339)})

		if !w.sleep(ctx, next.Sub(w.now())) {
			return nil
		}

		if err := tick(ctx); err != nil {
			// An expired session will not recover by waiting.
			if api.IsUnauthorized(err) {
				return err
			}
			logger.WarnCF("watch", "Balance refresh failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
