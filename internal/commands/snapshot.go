package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"meditrack/internal/capture"
	"meditrack/internal/config"
)

type snapshotOptions struct {
	Output  string
	Width   int
	Height  int
	Timeout time.Duration
}

func addSnapshot(topLevel *cobra.Command, ro *rootOptions) {
	o := &snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the calendar page to a PNG with headless Chromium.",
		Example: `
meditrack snapshot --output ./calendar.png
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, ro)
			if err != nil {
				return err
			}
			out := o.Output
			if out == "" {
				out = a.cfg.SnapshotPath
			}
			out, err = config.ExpandPath(out)
			if err != nil {
				return err
			}
			return capture.Snapshot(ctx, a.server(true).Handler(), capture.CaptureOptions{
				OutputPath: out,
				Width:      o.Width,
				Height:     o.Height,
				Timeout:    o.Timeout,
			})
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "PNG output path (default: snapshot_path from config).")
	cmd.Flags().IntVar(&o.Width, "width", capture.DefaultWidth, "Viewport width in pixels.")
	cmd.Flags().IntVar(&o.Height, "height", capture.DefaultHeight, "Viewport height in pixels.")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "Capture timeout.")

	topLevel.AddCommand(cmd)
}
