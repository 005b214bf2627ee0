package bulkimport

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEXLS  = "application/vnd.ms-excel"
)

var (
	ErrUnsupportedFile = errors.New("only .xlsx and .xls spreadsheets are accepted")
	ErrUnreadable      = errors.New("spreadsheet could not be read")
	ErrEmptyWorkbook   = errors.New("spreadsheet has no data rows")
	ErrMissingColumns  = errors.New("spreadsheet is missing required columns")
)

var requiredColumns = []string{ColName, ColCategory, ColStock, ColSellingPrice}

// CheckUpload accepts the two spreadsheet MIME types. Browsers often send
// octet-stream, so the file extension decides in that case.
func CheckUpload(filename, contentType string) error {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case MIMEXLSX, MIMEXLS:
		return nil
	case "", "application/octet-stream":
		ext := strings.ToLower(filepath.Ext(filename))
		if ext == ".xlsx" || ext == ".xls" {
			return nil
		}
	}
	return ErrUnsupportedFile
}

// ReadWorkbook reads the first sheet, using its first row as headers.
// Legacy binary .xls files are not readable by excelize and fail with
// ErrUnreadable.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(grid) < 2 {
		return nil, ErrEmptyWorkbook
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = canonical(h)
	}
	if missing := missingColumns(headers); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// canonical maps a header onto the known column spelling when it matches
// ignoring case and spacing.
func canonical(h string) string {
	h = strings.Join(strings.Fields(h), " ")
	for _, c := range Columns {
		if strings.EqualFold(h, c) {
			return c
		}
	}
	return h
}

func missingColumns(headers []string) []string {
	var missing []string
	for _, req := range requiredColumns {
		found := false
		for _, h := range headers {
			if h == req {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}

// WriteTemplate writes an empty import sheet with one example row.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	example := []interface{}{"Basmati Rice", "Grocery", "RICE-5KG", "kg", 25, 120, 85, 110, 0, 5}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
