package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	minColWidth = 8
	maxColWidth = 60
)

// WriteXLSX writes each sheet to its own tab with bold headers and column
// widths fitted to the longest cell.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return ErrNothingToExport
	}
	for _, s := range sheets {
		if s.Empty() {
			return ErrNothingToExport
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, s := range sheets {
		name := sheetName(s.Name, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		if err := writeRow(f, name, 1, s.Headers); err != nil {
			return err
		}
		for r, row := range s.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return err
			}
		}

		last, err := excelize.ColumnNumberToName(len(s.Headers))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last+"1", bold); err != nil {
			return err
		}
		for c, width := range columnWidths(s) {
			col, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(name, col, col, width); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func columnWidths(s Sheet) []float64 {
	widths := make([]float64, len(s.Headers))
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				break
			}
			if w := float64(utf8.RuneCountInString(c) + 2); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(s.Headers)
	for _, r := range s.Rows {
		measure(r)
	}
	for i, w := range widths {
		switch {
		case w < minColWidth:
			widths[i] = minColWidth
		case w > maxColWidth:
			widths[i] = maxColWidth
		}
	}
	return widths
}

// sheetName trims to the 31 characters Excel allows.
func sheetName(name string, i int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", i+1)
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
