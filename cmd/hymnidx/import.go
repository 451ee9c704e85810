package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hymnidx/internal"
	"hymnidx/internal/pipeline"
	"hymnidx/internal/storage"
)

type importFlags struct {
	input       string
	inputType   string
	name        string
	output      string
	skipHeaders bool
}

func (f *importFlags) register(cmd *cobra.Command, defaultName string) {
	cmd.Flags().StringVar(&f.input, "input", "", "source document path, or the text itself with --type literal")
	cmd.Flags().StringVar(&f.inputType, "type", "", "txt|pdf|docx|md|html|eml|xlsx|literal (default: from extension)")
	cmd.Flags().StringVar(&f.name, "name", defaultName, "table name")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "artifact base path (default: the table name in the output directory)")
	cmd.Flags().BoolVar(&f.skipHeaders, "skip-headers", false, "drop running-header lines (default: on for PDF only)")
	_ = cmd.MarkFlagRequired("input")
}

func (f *importFlags) request(cmd *cobra.Command) pipeline.ImportRequest {
	req := pipeline.ImportRequest{
		Input:     f.input,
		InputType: f.inputType,
		Name:      f.name,
		Output:    f.output,
	}
	if cmd.Flags().Changed("skip-headers") {
		skip := f.skipHeaders
		req.SkipHeaders = &skip
	}
	return req
}

func newHymnalCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "hymnal",
		Short: "Parse a hymnal index (number line, then title)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *storage.DB) error {
				proc := pipeline.NewProcessingService(db, ctx.cfg, ctx.log)
				res, err := proc.ImportHymnal(flags.request(cmd))
				if err != nil {
					return err
				}
				printImport(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	flags.register(cmd, "gather")
	return cmd
}

func newCalendarCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "calendar <year>",
		Short: "Parse a liturgical calendar index (celebration, then date and page)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || year <= 0 {
				return fmt.Errorf("%w: year must be a positive integer, got %q", internal.ErrInvalidInput, args[0])
			}
			return ctx.withDB(func(db *storage.DB) error {
				proc := pipeline.NewProcessingService(db, ctx.cfg, ctx.log)
				res, err := proc.ImportCalendar(flags.request(cmd), year)
				if err != nil {
					return err
				}
				printImport(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	flags.register(cmd, "ra-index")
	return cmd
}

func printImport(out io.Writer, res pipeline.ProcessResult) {
	s := res.Stats
	fmt.Fprintf(out, "imported table=%s kind=%s entries=%d run=%s\n", res.Table.Name, res.Table.Kind, len(res.Entries), res.RunID)
	fmt.Fprintf(out, "lines read=%d dropped=%d continuations dropped=%d empty heads=%d duplicates=%d ordinal failures=%d\n",
		s.LinesRead, s.LinesDropped, s.ContinuationsDropped, s.EmptyHeads, s.DuplicatesOverwritten, s.OrdinalFailures)
	for _, path := range res.Artifacts {
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	if len(res.Entries) == 0 {
		return
	}
	fmt.Fprintln(out, renderEntries(out, previewEntries(res.Entries, previewSize)))
	if res.Table.Kind == internal.KindCalendar {
		if around := yearBoundary(res.Entries, res.Table.Year, 2); len(around) > 0 {
			fmt.Fprintf(out, "around the start of %d:\n", res.Table.Year)
			fmt.Fprintln(out, renderEntries(out, around))
		}
	}
}
