package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"meditrack/internal/calendar"
	appLog "meditrack/internal/log"
	"meditrack/internal/printers"
)

type calendarOptions struct {
	Month int
	Year  int
	Prev  bool
	Next  bool
}

func addCalendar(topLevel *cobra.Command, ro *rootOptions) {
	o := &calendarOptions{}
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month with dose days highlighted.",
		Example: `
meditrack calendar
meditrack calendar --month 12 --year 2024 --next
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, ro)
			if err != nil {
				return err
			}
			c, err := o.cursor(calendar.CursorFor(a.now()))
			if err != nil {
				return err
			}

			l, err := calendar.LayoutWithSource(ctx, c, calendar.DateOf(a.now()), a.scheduleSource())
			if err != nil {
				appLog.Warn("dose days unavailable", "error", err.Error())
			}
			pp := &printers.PrettyPrint{}
			pp.Month(l)
			_, _ = fmt.Fprintln(color.Output, "")
			return nil
		},
	}
	cmd.Flags().IntVar(&o.Month, "month", 0, "Month to show, 1-12 (default: current month).")
	cmd.Flags().IntVar(&o.Year, "year", 0, "Year to show (default: current year).")
	cmd.Flags().BoolVar(&o.Prev, "prev", false, "Show the month before the selected one.")
	cmd.Flags().BoolVar(&o.Next, "next", false, "Show the month after the selected one.")

	topLevel.AddCommand(cmd)
}

// cursor applies the flags to the current month. --month is 1-based for
// humans; the cursor is zero-based.
func (o *calendarOptions) cursor(current calendar.Cursor) (calendar.Cursor, error) {
	c := current
	if o.Month != 0 {
		if o.Month < 1 || o.Month > 12 {
			return c, fmt.Errorf("--month must be between 1 and 12, got %d", o.Month)
		}
		c.Month = o.Month - 1
	}
	if o.Year != 0 {
		c.Year = o.Year
	}
	switch {
	case o.Prev && o.Next:
		return c, errors.New("--prev and --next are mutually exclusive")
	case o.Prev:
		c = calendar.Navigate(c, -1)
	case o.Next:
		c = calendar.Navigate(c, 1)
	}
	return c, nil
}
