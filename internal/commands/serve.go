package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"meditrack/internal/calendar"
	"meditrack/internal/capture"
	"meditrack/internal/config"
	appLog "meditrack/internal/log"
	"meditrack/internal/scheduler"
)

type serveOptions struct {
	Listen   string
	Snapshot bool
}

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI, API and reminder jobs.",
		Example: `
meditrack serve
meditrack serve --listen 0.0.0.0:8080 --snapshot
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ro, o)
		},
	}
	cmd.Flags().StringVar(&o.Listen, "listen", "", "HTTP listen address (overrides config if set).")
	cmd.Flags().BoolVar(&o.Snapshot, "snapshot", false, "Refresh the calendar PNG on every schedule refresh (needs Chromium).")

	topLevel.AddCommand(cmd)
}

func runServe(ro *rootOptions, o *serveOptions) error {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		appLog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		return fmt.Errorf("error setting GOMAXPROCS %w", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := loadApp(ctx, ro)
	if err != nil {
		return err
	}
	if o.Listen != "" {
		a.cfg.Listen = o.Listen
	}

	sched := scheduler.New()
	if err := sched.Add("reminder-check", a.cfg.ReminderCron, func(ctx context.Context) {
		res := a.checker.Check(ctx, a.now())
		if len(res.Reminders)+len(res.Missed) > 0 {
			appLog.Info("reminder check", "reminders", len(res.Reminders), "missed", len(res.Missed), "rolled_over", res.RolledOver)
		}
	}); err != nil {
		return err
	}
	if err := sched.Add("schedule-refresh", a.cfg.RefreshCron, func(ctx context.Context) {
		a.refresh(ctx, o.Snapshot)
	}); err != nil {
		return err
	}

	// Check once at startup so the inbox is populated before the first tick.
	a.checker.Check(ctx, a.now())
	a.refresh(ctx, o.Snapshot)

	sched.Start(ctx)
	defer sched.Stop()
	appLog.Info("scheduler started", "jobs", strings.Join(sched.Jobs(), ","))

	err = a.server(false).Run(ctx)
	cancel()
	appLog.Info("meditrack exiting")
	return err
}

// refresh warms the schedule cache for the current month and, when
// enabled, re-renders the calendar PNG.
func (a *app) refresh(ctx context.Context, snapshot bool) {
	if a.schedule != nil {
		c := calendar.CursorFor(a.now())
		days, err := a.schedule.FetchScheduleForMonth(ctx, c.Month, c.Year)
		if err != nil {
			appLog.Error("schedule refresh failed", err)
		} else {
			appLog.Debug("schedule refreshed", "month", c.Label(), "dose_days", len(days))
		}
	}
	if !snapshot {
		return
	}
	out, err := config.ExpandPath(a.cfg.SnapshotPath)
	if err != nil {
		appLog.Error("snapshot path invalid", err, "path", a.cfg.SnapshotPath)
		return
	}
	if err := capture.Snapshot(ctx, a.server(true).Handler(), capture.CaptureOptions{
		OutputPath: out,
		Timeout:    time.Duration(capture.DefaultTimeoutSec) * time.Second,
	}); err != nil {
		appLog.Error("snapshot failed", err, "path", out)
	}
}
