package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hymnidx/internal"
	"hymnidx/internal/lookup"
	"hymnidx/internal/storage"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <table> <key>",
		Short: "Print the value stored under an exact key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *storage.DB) error {
				t, err := loadTable(db, args[0])
				if err != nil {
					return err
				}
				value, ok := t.Get(args[1])
				if !ok {
					return fmt.Errorf("key %q in %s: %w", args[1], args[0], internal.ErrNotFound)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <table> <query>",
		Short: "List entries whose key contains query, ignoring case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *storage.DB) error {
				t, err := loadTable(db, args[0])
				if err != nil {
					return err
				}
				matches := t.Search(args[1])
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "no matches")
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{m.Key, strconv.Itoa(m.Value)})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Key", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newDateCommand(ctx *commandContext) *cobra.Command {
	var fuzzy bool
	var threshold int
	cmd := &cobra.Command{
		Use:   "date <table> <YYYY-MM-DD> [celebration]",
		Short: "Find calendar pages for a date",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse("2006-01-02", strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", internal.ErrInvalidInput, args[1])
			}
			celebration := ""
			if len(args) == 3 {
				celebration = strings.TrimSpace(args[2])
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = ctx.cfg.FuzzyThreshold
			}

			return ctx.withDB(func(db *storage.DB) error {
				t, err := loadTable(db, args[0])
				if err != nil {
					return err
				}
				if err := requireCalendar(t); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				day := date.Format(lookup.DateLayout)

				if celebration == "" {
					all := t.AllForDate(date)
					if len(all) == 0 {
						return fmt.Errorf("no celebrations on %s: %w", day, internal.ErrNotFound)
					}
					rows := make([][]string, 0, len(all))
					for _, e := range all {
						rows = append(rows, []string{e.Key, strconv.Itoa(e.Value)})
					}
					fmt.Fprintln(out, renderTable(out, []string{"Celebration", "Page"}, rows, []columnAlignment{alignLeft, alignRight}))
					return nil
				}

				if fuzzy {
					m, ok := t.Fuzzy(date, celebration, threshold)
					if !ok {
						return fmt.Errorf("nothing on %s scores %d or more against %q: %w", day, threshold, celebration, internal.ErrNotFound)
					}
					fmt.Fprintf(out, "%d\t%s\t(score %d)\n", m.Page, m.Key, m.Score)
					return nil
				}

				page, ok := t.PageByDate(date, celebration, false, threshold)
				if !ok {
					return fmt.Errorf("%q on %s: %w", celebration, day, internal.ErrNotFound)
				}
				fmt.Fprintln(out, page)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "match the celebration by similarity")
	cmd.Flags().IntVar(&threshold, "threshold", lookup.DefaultThreshold, "minimum similarity score (0-100) for --fuzzy")
	return cmd
}

func newTablesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List imported tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *storage.DB) error {
				tables, err := db.ListTables()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tables) == 0 {
					fmt.Fprintln(out, "no tables")
					return nil
				}
				rows := make([][]string, 0, len(tables))
				for _, info := range tables {
					year := ""
					if info.Year > 0 {
						year = strconv.Itoa(info.Year)
					}
					rows = append(rows, []string{info.Name, string(info.Kind), year, strconv.Itoa(info.Entries), info.Source, info.UpdatedAt})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Name", "Kind", "Year", "Entries", "Source", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs <table>",
		Short: "Show the most recent imports of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *storage.DB) error {
				if _, err := db.MustTable(args[0]); err != nil {
					return err
				}
				runs, err := db.ListRuns(args[0], limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					s := r.Stats
					rows = append(rows, []string{
						r.ID, r.CreatedAt,
						strconv.Itoa(s.LinesRead), strconv.Itoa(s.Entries),
						strconv.Itoa(s.DuplicatesOverwritten), strconv.Itoa(s.ContinuationsDropped), strconv.Itoa(s.EmptyHeads), strconv.Itoa(s.OrdinalFailures),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Run", "Created", "Lines", "Entries", "Duplicates", "Orphans", "Empty heads", "Ordinal failures"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
