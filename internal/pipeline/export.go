package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"hymnidx/internal"
)

// ExportTableToXLSX writes one sheet with a row per entry. Calendar tables
// get the date and celebration split into their own columns.
func ExportTableToXLSX(info internal.TableInfo, entries []internal.Entry, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if info.Name != "" {
		if err := f.SetSheetName(sheet, sheetName(info.Name)); err != nil {
			return err
		}
		sheet = sheetName(info.Name)
	}

	headers := []string{"position", "key", "value"}
	if info.Kind == internal.KindCalendar {
		headers = append(headers, "date", "celebration")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, e := range entries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, i+1)
		set(2, e.Key)
		set(3, e.Value)
		if info.Kind == internal.KindCalendar {
			date, celebration, _ := strings.Cut(e.Key, " - ")
			set(4, date)
			set(5, celebration)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// sheetName trims a table name to excel's 31 character limit.
func sheetName(name string) string {
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
