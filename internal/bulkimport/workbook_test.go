package bulkimport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sheetBytes(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestReadWorkbook(t *testing.T) {
	buf := sheetBytes(t, [][]interface{}{
		{"product name", "Category", "Stock", "Selling  Price", "GST Percentage"},
		{"Tea", "Beverages", 4, 150, 5},
		{"Sugar", "Grocery", 2.5},
	})

	rows, err := ReadWorkbook(buf)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0][ColName] != "Tea" || rows[0][ColSellingPrice] != "150" || rows[0][ColGST] != "5" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1][ColSellingPrice] != "" {
		t.Errorf("short row should pad missing cells, got %+v", rows[1])
	}

	res := Mapper{NewID: seqIDs()}.Map(rows)
	if res.AcceptedCount != 1 || res.RejectedCount != 1 || res.Rejected[0].Row != 3 {
		t.Errorf("map result = %+v", res)
	}
}

func TestReadWorkbookErrors(t *testing.T) {
	t.Run("missing columns", func(t *testing.T) {
		_, err := ReadWorkbook(sheetBytes(t, [][]interface{}{{"Product Name", "Stock"}, {"Tea", 1}}))
		if !errors.Is(err, ErrMissingColumns) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("header only", func(t *testing.T) {
		_, err := ReadWorkbook(sheetBytes(t, [][]interface{}{{"Product Name", "Category", "Stock", "Selling Price"}}))
		if !errors.Is(err, ErrEmptyWorkbook) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("not a spreadsheet", func(t *testing.T) {
		_, err := ReadWorkbook(bytes.NewBufferString("name,stock\ntea,1\n"))
		if !errors.Is(err, ErrUnreadable) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	rows, err := ReadWorkbook(&buf)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	res := Map(rows)
	if res.AcceptedCount != 1 || res.Accepted[0].Name != "Basmati Rice" {
		t.Errorf("template example row did not map: %+v", res)
	}
}

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name, file, ct string
		ok             bool
	}{
		{"xlsx mime", "stock.xlsx", MIMEXLSX, true},
		{"xls mime", "stock.xls", MIMEXLS, true},
		{"octet stream with xlsx name", "stock.XLSX", "application/octet-stream", true},
		{"csv", "stock.csv", "text/csv", false},
		{"octet stream with pdf name", "bill.pdf", "application/octet-stream", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUpload(tt.file, tt.ct)
			if (err == nil) != tt.ok {
				t.Errorf("CheckUpload(%q, %q) = %v", tt.file, tt.ct, err)
			}
		})
	}
}
