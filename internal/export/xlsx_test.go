package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	s := Sheet{
		Name:    "Returns",
		Headers: []string{"Date", "Reason"},
		Rows: [][]string{
			{"18-10-2026", "customer bought the wrong size and asked for an exchange"},
			{"19-10-2026", "ok"},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, s); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if list := f.GetSheetList(); len(list) != 1 || list[0] != "Returns" {
		t.Fatalf("sheets = %v", list)
	}
	rows, err := f.GetRows("Returns")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][1] != "Reason" || rows[2][1] != "ok" {
		t.Errorf("rows = %q", rows)
	}

	dateW, err := f.GetColWidth("Returns", "A")
	if err != nil {
		t.Fatal(err)
	}
	reasonW, err := f.GetColWidth("Returns", "B")
	if err != nil {
		t.Fatal(err)
	}
	if dateW != 12 || reasonW <= dateW {
		t.Errorf("widths A=%v B=%v", dateW, reasonW)
	}
}

func TestWriteXLSXRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Sheet{Name: "Products", Headers: []string{"Name"}}); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("no file should be written, got %d bytes", buf.Len())
	}
}
