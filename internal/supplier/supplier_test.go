package supplier

import (
	"errors"
	"testing"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/tax"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func entry(roundOff, paid int64) models.PurchaseEntry {
	return models.PurchaseEntry{RoundOff: decimal.NewFromInt(roundOff), PaidAmount: decimal.NewFromInt(paid)}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name        string
		entries     []models.PurchaseEntry
		outstanding int64
		status      tax.PaymentStatus
	}{
		{"no entries", nil, 0, tax.Paid},
		{"unpaid", []models.PurchaseEntry{entry(1300, 0), entry(500, 0)}, 1800, tax.Unpaid},
		{"partially paid", []models.PurchaseEntry{entry(1300, 1300), entry(500, 200)}, 300, tax.PartiallyPaid},
		{"settled", []models.PurchaseEntry{entry(1300, 1300), entry(500, 500)}, 0, tax.Paid},
		// overpaying one bill does not offset another
		{"overpaid entry", []models.PurchaseEntry{entry(1000, 1200), entry(500, 0)}, 500, tax.PartiallyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, status := Balance(tt.entries)
			if !out.Equal(decimal.NewFromInt(tt.outstanding)) || status != tt.status {
				t.Errorf("Balance = %s %q, want %d %q", out, status, tt.outstanding, tt.status)
			}
		})
	}
}

func TestApplyRequest(t *testing.T) {
	limit := decimal.NewFromInt(50000)
	var s models.Supplier
	err := SupplierRequest{Name: " Agro Traders ", GSTNumber: "29abcde1234f1z5", CreditDays: 30, CreditLimit: &limit}.apply(&s)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Agro Traders" || s.GSTNumber != "29ABCDE1234F1Z5" || !s.CreditLimit.Equal(limit) {
		t.Errorf("supplier = %+v", s)
	}

	neg := decimal.NewFromInt(-1)
	var fe *fiber.Error
	if err := (SupplierRequest{Name: "X", CreditLimit: &neg}).apply(&s); !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Errorf("negative limit = %v", err)
	}
	if err := (SupplierRequest{Name: "   "}).apply(&s); !errors.As(err, &fe) {
		t.Errorf("blank name = %v", err)
	}
}

func TestOverCreditLimit(t *testing.T) {
	s := models.Supplier{CreditLimit: decimal.NewFromInt(1000), OutstandingBalance: decimal.NewFromInt(1200)}
	if !toResponse(s).OverCreditLimit {
		t.Errorf("expected over limit")
	}
	s.CreditLimit = decimal.Zero
	if toResponse(s).OverCreditLimit {
		t.Errorf("zero limit means no limit")
	}
}
