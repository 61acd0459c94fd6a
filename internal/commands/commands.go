// Package commands wires the meditrack CLI.
package commands

import (
	"github.com/spf13/cobra"

	"meditrack/internal/config"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

// New builds the root command.
func New() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "meditrack",
		Short:         "Medicine tracking with a month calendar and dose reminders.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", config.DefaultPath,
		"Path to the config file (env MEDITRACK_CONFIG).")
	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error).")

	AddCommands(cmd, o)
	return cmd
}

// AddCommands registers every subcommand on topLevel.
func AddCommands(topLevel *cobra.Command, o *rootOptions) {
	addServe(topLevel, o)
	addCalendar(topLevel, o)
	addMeds(topLevel, o)
	addCheck(topLevel, o)
	addSnapshot(topLevel, o)
	addVersion(topLevel)
}
