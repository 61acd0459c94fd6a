package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"meditrack/internal/daypart"
	"meditrack/internal/printers"
)

type medsOptions struct {
	Filter string
	Query  string
}

func addMeds(topLevel *cobra.Command, ro *rootOptions) {
	o := &medsOptions{}
	cmd := &cobra.Command{
		Use:     "meds",
		Aliases: []string{"medicines"},
		Short:   "List medicines, optionally by part of the day.",
		Example: `
meditrack meds
meditrack meds --filter morning --query vitamin
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := daypart.ParseBucket(o.Filter)
			if err != nil {
				return err
			}
			a, err := loadApp(context.Background(), ro)
			if err != nil {
				return err
			}
			pp := &printers.PrettyPrint{}
			pp.Medicines(a.store.Filter(o.Query, bucket))
			return nil
		},
	}
	names := make([]string, 0, len(daypart.Buckets()))
	for _, b := range daypart.Buckets() {
		names = append(names, string(b))
	}
	cmd.Flags().StringVar(&o.Filter, "filter", string(daypart.All), "Part of the day: "+strings.Join(names, ", ")+".")
	cmd.Flags().StringVarP(&o.Query, "query", "q", "", "Case-insensitive search on name or type.")

	topLevel.AddCommand(cmd)
}
