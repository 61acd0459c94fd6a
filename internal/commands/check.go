package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"meditrack/internal/printers"
)

func addCheck(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one reminder check and print the resulting notifications.",
		Example: `
meditrack check
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, ro)
			if err != nil {
				return err
			}
			a.checker.Check(ctx, a.now())

			pp := &printers.PrettyPrint{}
			pp.Notifications(a.inbox.List())
			_, _ = fmt.Fprintln(color.Output, "")
			pp.Stats(a.store.Stats())
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
