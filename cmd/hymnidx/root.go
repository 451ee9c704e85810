package main

import (
	"github.com/spf13/cobra"

	"hymnidx/internal/config"
	"hymnidx/internal/logging"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(newCommandContext())
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hymnidx",
		Short:         "Build page-number indexes for hymnals and liturgical calendars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			ctx.cfg = cfg
			ctx.log = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newHymnalCommand(ctx),
		newCalendarCommand(ctx),
		newLookupCommand(ctx),
		newSearchCommand(ctx),
		newDateCommand(ctx),
		newTablesCommand(ctx),
		newRunsCommand(ctx),
		newExportXLSXCommand(ctx),
		newPlaylistFetchCommand(ctx),
		newPlaylistMappingCommand(ctx),
	)

	return rootCmd
}
