package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"hymnidx/internal"
)

const previewSize = 5

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rounded boxes on a terminal and plain ASCII otherwise so
// piped output stays greppable.
func renderTable(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if isTerminal(out) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// positioned is an entry with its 1-based place in the table. Position 0
// marks elided rows.
type positioned struct {
	Position int
	internal.Entry
}

func renderEntries(out io.Writer, rows []positioned) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.Position == 0 {
			cells = append(cells, []string{"...", "...", ""})
			continue
		}
		cells = append(cells, []string{strconv.Itoa(r.Position), r.Key, strconv.Itoa(r.Value)})
	}
	return renderTable(out, []string{"#", "Key", "Value"}, cells, []columnAlignment{alignRight, alignLeft, alignRight})
}

func positions(entries []internal.Entry, from, to int) []positioned {
	out := make([]positioned, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, positioned{Position: i + 1, Entry: entries[i]})
	}
	return out
}

// previewEntries keeps the first and last n entries with one elision row
// between them.
func previewEntries(entries []internal.Entry, n int) []positioned {
	if len(entries) <= 2*n {
		return positions(entries, 0, len(entries))
	}
	out := positions(entries, 0, n)
	out = append(out, positioned{})
	return append(out, positions(entries, len(entries)-n, len(entries))...)
}

// yearBoundary returns the entries around the first switch from year-1 to
// year in document order, width on each side.
func yearBoundary(entries []internal.Entry, year, width int) []positioned {
	prev := fmt.Sprintf(", %d - ", year-1)
	cur := fmt.Sprintf(", %d - ", year)
	for i := 1; i < len(entries); i++ {
		if !strings.Contains(entries[i-1].Key, prev) || !strings.Contains(entries[i].Key, cur) {
			continue
		}
		from := max(i-width, 0)
		to := min(i+width, len(entries))
		return positions(entries, from, to)
	}
	return nil
}
