package export

import (
	"errors"
	"testing"
	"time"

	"retailpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

var day = time.Date(2026, 10, 18, 9, 5, 0, 0, time.UTC)

func TestEmptyInputShortCircuits(t *testing.T) {
	checks := map[string]func() error{
		"products":     func() error { _, err := Products(nil); return err },
		"transactions": func() error { _, err := Transactions(nil); return err },
		"purchases":    func() error { _, err := PurchaseEntries(nil); return err },
		"damaged":      func() error { _, err := Damaged(nil); return err },
		"returns":      func() error { _, err := Returns([]models.ReturnRecord{}); return err },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !errors.Is(err, ErrNothingToExport) {
				t.Errorf("err = %v, want ErrNothingToExport", err)
			}
		})
	}
}

func TestProductsSheet(t *testing.T) {
	sku := "TEA-250"
	s, err := Products([]models.Product{{
		ID: 7, Name: "Tea", Category: "Beverages", Unit: "pack", SKU: &sku,
		Stock: 12, MRP: decimal.NewFromInt(160), StockPrice: decimal.NewFromInt(110),
		Price: decimal.RequireFromString("150.5"), GSTPercent: decimal.NewFromInt(5), SalesCount: 3,
	}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Tea", "Beverages", "TEA-250", "TEA-250", "pack", "12 packs", "160.00", "110.00", "150.50", "5", "3 packs"}
	if len(s.Rows) != 1 || len(s.Rows[0]) != len(s.Headers) {
		t.Fatalf("sheet shape = %d headers, rows %+v", len(s.Headers), s.Rows)
	}
	for i, w := range want {
		if s.Rows[0][i] != w {
			t.Errorf("%s = %q, want %q", s.Headers[i], s.Rows[0][i], w)
		}
	}
}

func TestTransactionsSheet(t *testing.T) {
	tx := models.Transaction{Code: "TXN-20261018-090500-AB12", CashierName: "Ravi", PaymentMethod: models.PaymentUPI,
		TotalAmount: decimal.NewFromInt(430), CreatedAt: day}
	if err := tx.SetItems([]models.BillItem{{ProductID: 1, Name: "Soap"}, {ProductID: 2, Name: "Rice"}}); err != nil {
		t.Fatal(err)
	}
	s, err := Transactions([]models.Transaction{tx})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Rows[0]
	if got[0] != tx.Code || got[1] != "18-10-2026 09:05" || got[3] != "2" || got[4] != "UPI" || got[5] != "430.00" {
		t.Errorf("row = %q", got)
	}
}

func TestPurchaseAndReturnSheets(t *testing.T) {
	due := day.AddDate(0, 0, 30)
	p, err := PurchaseEntries([]models.PurchaseEntry{{
		BillNumber: "B-19", BillDate: day, DueDate: &due, Supplier: &models.Supplier{Name: "Agro Traders"},
		InvoiceType: models.InvoicePurchaseInventory, RoundOff: decimal.NewFromInt(1300),
		PaidAmount: decimal.NewFromInt(500), PaymentStatus: "Partially Paid",
	}})
	if err != nil {
		t.Fatal(err)
	}
	row := p.Rows[0]
	if row[1] != "18-10-2026" || row[2] != "17-11-2026" || row[3] != "Agro Traders" || row[10] != "800.00" {
		t.Errorf("purchase row = %q", row)
	}

	r, err := Returns([]models.ReturnRecord{{
		Transaction: &models.Transaction{Code: "TXN-1"}, ProductName: "Soap", Quantity: 1,
		Reason: "seal broken", Status: models.ReturnDamaged, CreatedAt: day,
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Rows[0]; got[1] != "TXN-1" || got[5] != "Damaged" {
		t.Errorf("return row = %q", got)
	}

	d, err := Damaged([]models.DamagedInventory{{Date: day, Quantity: 1.5, Reason: "spoiled",
		Product: models.Product{Name: "Rice", Unit: "kg"}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Rows[0]; got[1] != "Rice" || got[2] != "1.50 kg" {
		t.Errorf("damaged row = %q", got)
	}
}

func TestCurrency(t *testing.T) {
	tests := map[string]string{
		"0":           "Rs. 0.00",
		"5.5":         "Rs. 5.50",
		"1234.5":      "Rs. 1,234.50",
		"1234567.891": "Rs. 1,234,567.89",
		"-50":         "-Rs. 50.00",
	}
	for in, want := range tests {
		if got := Currency(decimal.RequireFromString(in)); got != want {
			t.Errorf("Currency(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct{ prefix, ext, want string }{
		{"products", "xlsx", "products_2026-10-18.xlsx"},
		{"Agro Traders/B-19", ".pdf", "Agro_Traders-B-19_2026-10-18.pdf"},
		{"  ", "xlsx", "export_2026-10-18.xlsx"},
	}
	for _, tt := range tests {
		if got := Filename(tt.prefix, day, tt.ext); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
