package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hymnidx/internal/pipeline"
	"hymnidx/internal/storage"
)

func newExportXLSXCommand(ctx *commandContext) *cobra.Command {
	var tableName, outPath string
	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Write a stored table to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outPath) == "" {
				outPath = filepath.Join(ctx.cfg.OutputDir, tableName+".xlsx")
			}
			return ctx.withDB(func(db *storage.DB) error {
				t, err := loadTable(db, tableName)
				if err != nil {
					return err
				}
				if err := pipeline.ExportTableToXLSX(t.Info(), t.Entries(), outPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported table=%s entries=%d file=%s\n", tableName, len(t.Entries()), outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "table name")
	cmd.Flags().StringVar(&outPath, "out", "", "xlsx path (default: <output dir>/<table>.xlsx)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
