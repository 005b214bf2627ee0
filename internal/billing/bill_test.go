package billing

import (
	"errors"
	"testing"

	"retailpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type fakeStock map[uint]float64

func (f fakeStock) Stock(id uint) (float64, error) {
	s, ok := f[id]
	if !ok {
		return 0, ErrProductNotFound
	}
	return s, nil
}

func product(id uint, name, unit, price string, stock float64) models.Product {
	return models.Product{
		ID:    id,
		Name:  name,
		Unit:  unit,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func sumLines(b *Bill) decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines() {
		total = total.Add(l.Price.Mul(decimal.NewFromFloat(l.Quantity)))
	}
	return total
}

func TestAddToBill(t *testing.T) {
	soap := product(1, "Soap", "piece", "35", 3)
	rice := product(2, "Rice", "kg", "62.5", 1)
	empty := product(3, "Salt", "pack", "20", 0)

	tests := []struct {
		name    string
		adds    []models.Product
		qty     []float64
		wantErr error
		wantQty float64
	}{
		{"new discrete line", []models.Product{soap}, []float64{1}, nil, 1},
		{"merge discrete up to stock", []models.Product{soap, soap, soap}, []float64{1, 1, 1}, nil, 3},
		{"discrete beyond stock rejected", []models.Product{soap, soap}, []float64{2, 2}, ErrExceedsStock, 2},
		{"new discrete line above stock rejected", []models.Product{soap}, []float64{4}, ErrExceedsStock, 0},
		{"fractional piece rejected", []models.Product{soap}, []float64{1.5}, ErrFractional, 0},
		{"continuous ignores stock ceiling", []models.Product{rice, rice}, []float64{0.8, 0.7}, nil, 1.5},
		{"out of stock", []models.Product{empty}, []float64{1}, ErrOutOfStock, 0},
		{"zero quantity", []models.Product{soap}, []float64{0}, ErrInvalidQuantity, 0},
		{"negative quantity", []models.Product{soap}, []float64{-2}, ErrInvalidQuantity, 0},
		{"continuous quantity rounding to zero", []models.Product{rice}, []float64{0.0004}, ErrInvalidQuantity, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notices Notices
			b := NewBill(fakeStock{1: 3, 2: 1}, &notices)

			var err error
			for i, p := range tt.adds {
				err = b.AddToBill(p, tt.qty[i])
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && notices[len(notices)-1].Level != LevelWarning {
				t.Errorf("expected a warning notice, got %+v", notices)
			}

			lines := b.Lines()
			if tt.wantQty == 0 {
				if len(lines) != 0 {
					t.Fatalf("expected empty bill, got %+v", lines)
				}
				return
			}
			if len(lines) != 1 {
				t.Fatalf("expected one merged line, got %d", len(lines))
			}
			if lines[0].Quantity != tt.wantQty {
				t.Errorf("quantity = %v, want %v", lines[0].Quantity, tt.wantQty)
			}
		})
	}
}

func TestDiscreteQuantityNeverExceedsStock(t *testing.T) {
	stock := fakeStock{1: 4}
	soap := product(1, "Soap", "piece", "35", 4)
	b := NewBill(stock, nil)

	for i := 0; i < 10; i++ {
		_ = b.AddToBill(soap, 1)
		_ = b.Increment(0)
	}
	if q := b.Lines()[0].Quantity; q > soap.Stock {
		t.Fatalf("quantity %v exceeds stock %v", q, soap.Stock)
	}

	if err := b.UpdateQuantity(0, 5); !errors.Is(err, ErrExceedsStock) {
		t.Errorf("expected ErrExceedsStock, got %v", err)
	}

	// live stock dropped after the line was added
	stock[1] = 2
	if err := b.UpdateQuantity(0, 3); !errors.Is(err, ErrExceedsStock) {
		t.Errorf("expected live stock check, got %v", err)
	}
	if err := b.UpdateQuantity(0, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	b := NewBill(fakeStock{1: 10, 2: 0}, nil)
	_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 2)
	_ = b.AddToBill(product(2, "Milk", "liter", "56", 3), 1)

	if err := b.UpdateQuantity(1, 7.25); err != nil {
		t.Fatalf("continuous update: %v", err)
	}
	if q := b.Lines()[1].Quantity; q != 7.25 {
		t.Errorf("milk quantity = %v", q)
	}

	if err := b.UpdateQuantity(0, 2.5); !errors.Is(err, ErrFractional) {
		t.Errorf("expected ErrFractional, got %v", err)
	}
	if err := b.UpdateQuantity(5, 1); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}

	if err := b.UpdateQuantity(0, 0); err != nil {
		t.Fatalf("zero quantity should remove: %v", err)
	}
	if b.Len() != 1 || b.Lines()[0].Name != "Milk" {
		t.Errorf("expected only Milk left, got %+v", b.Lines())
	}
}

func TestUpdateQuantityRemovesNonPositive(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
	}{
		{"zero", 0},
		{"negative", -3},
		{"rounds to zero", 0.0004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBill(fakeStock{1: 10, 2: 10}, nil)
			_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 2)
			_ = b.AddToBill(product(2, "Rice", "kg", "60", 10), 1.5)

			if err := b.UpdateQuantity(1, tt.qty); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			lines := b.Lines()
			if len(lines) != 1 || lines[0].Name != "Soap" {
				t.Fatalf("expected only Soap left, got %+v", lines)
			}
			for _, l := range lines {
				if l.Quantity <= 0 {
					t.Errorf("line %s kept with quantity %v", l.Name, l.Quantity)
				}
			}
		})
	}
}

func TestAddRemoveClearTotals(t *testing.T) {
	b := NewBill(fakeStock{1: 10, 2: 10}, nil)
	if err := b.AddToBill(product(1, "Notebook", "piece", "10", 10), 2); err != nil {
		t.Fatalf("add A: %v", err)
	}
	if err := b.AddToBill(product(2, "Pen", "piece", "5", 10), 3); err != nil {
		t.Fatalf("add B: %v", err)
	}
	if got := b.TotalAmount().StringFixed(2); got != "35.00" {
		t.Fatalf("total = %s, want 35.00", got)
	}

	if err := b.RemoveItem(0); err != nil {
		t.Fatalf("remove A: %v", err)
	}
	if got := b.TotalAmount().StringFixed(2); got != "15.00" {
		t.Fatalf("total after remove = %s, want 15.00", got)
	}

	if err := b.ClearBill(ConfirmFunc(func(string) bool { return true })); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if b.Len() != 0 || b.TotalAmount().StringFixed(2) != "0.00" {
		t.Errorf("bill after clear: len %d total %s", b.Len(), b.TotalAmount().StringFixed(2))
	}
}

func TestUpdateQuantityLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	b := NewBill(StockLookupFunc(func(uint) (float64, error) { return 0, boom }), nil)
	_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 1)

	if err := b.UpdateQuantity(0, 2); !errors.Is(err, boom) {
		t.Errorf("expected lookup error, got %v", err)
	}
	if q := b.Lines()[0].Quantity; q != 1 {
		t.Errorf("quantity changed to %v", q)
	}
}

func TestStepping(t *testing.T) {
	b := NewBill(fakeStock{1: 5}, nil)
	_ = b.AddToBill(product(1, "Soap", "piece", "35", 5), 1)
	_ = b.AddToBill(product(2, "Rice", "kg", "60", 2), 0.2)

	_ = b.Increment(0)
	_ = b.Increment(1)
	_ = b.Increment(1)
	lines := b.Lines()
	if lines[0].Quantity != 2 {
		t.Errorf("soap = %v, want 2", lines[0].Quantity)
	}
	if lines[1].Quantity != 0.4 {
		t.Errorf("rice = %v, want 0.4", lines[1].Quantity)
	}

	for i := 0; i < 4; i++ {
		_ = b.Decrement(1)
	}
	if b.Len() != 1 {
		t.Errorf("rice should be removed after stepping to zero, lines=%+v", b.Lines())
	}
}

func TestTotalMatchesLines(t *testing.T) {
	stock := fakeStock{1: 50, 2: 50, 3: 50}
	b := NewBill(stock, nil)

	ops := []func(){
		func() { _ = b.AddToBill(product(1, "Soap", "piece", "35.50", 50), 3) },
		func() { _ = b.AddToBill(product(2, "Rice", "kg", "62.25", 50), 1.3) },
		func() { _ = b.Increment(1) },
		func() { _ = b.AddToBill(product(3, "Tea", "pack", "120", 50), 2) },
		func() { _ = b.UpdateQuantity(0, 7) },
		func() { _ = b.Decrement(2) },
		func() { _ = b.RemoveItem(1) },
		func() { _ = b.AddToBill(product(2, "Rice", "kg", "64", 50), 0.7) },
		func() { _ = b.UpdateQuantity(9, 1) },
	}

	for i, op := range ops {
		op()
		if got, want := b.TotalAmount(), sumLines(b); !got.Equal(want) {
			t.Fatalf("after op %d total = %s, lines sum = %s", i, got, want)
		}
	}

	// 7 * 35.50 + 1 * 120 + 0.7 * 64
	if want := decimal.RequireFromString("413.3"); !b.TotalAmount().Equal(want) {
		t.Errorf("total = %s, want %s", b.TotalAmount(), want)
	}
}

func TestReAddTakesCurrentPrice(t *testing.T) {
	b := NewBill(fakeStock{1: 10}, nil)
	_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 1)

	// while the line exists the snapshot is kept
	_ = b.AddToBill(product(1, "Soap", "piece", "40", 10), 1)
	if p := b.Lines()[0].Price; !p.Equal(decimal.NewFromInt(35)) {
		t.Errorf("existing line price = %s, want 35", p)
	}

	_ = b.RemoveItem(0)
	_ = b.AddToBill(product(1, "Soap", "piece", "40", 10), 1)
	if p := b.Lines()[0].Price; !p.Equal(decimal.NewFromInt(40)) {
		t.Errorf("re-added line price = %s, want 40", p)
	}
}

func TestClearBill(t *testing.T) {
	t.Run("declined leaves bill intact", func(t *testing.T) {
		b := NewBill(fakeStock{1: 10}, nil)
		_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 2)
		before := b.Lines()

		var prompted string
		err := b.ClearBill(ConfirmFunc(func(p string) bool { prompted = p; return false }))
		if !errors.Is(err, ErrNotConfirmed) {
			t.Fatalf("expected ErrNotConfirmed, got %v", err)
		}
		if prompted == "" {
			t.Errorf("confirmer was not asked")
		}
		after := b.Lines()
		if len(after) != len(before) || after[0] != before[0] {
			t.Errorf("bill changed: %+v -> %+v", before, after)
		}
	})

	t.Run("nil confirmer declines", func(t *testing.T) {
		b := NewBill(fakeStock{1: 10}, nil)
		_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 1)
		if err := b.ClearBill(nil); !errors.Is(err, ErrNotConfirmed) {
			t.Fatalf("expected ErrNotConfirmed, got %v", err)
		}
	})

	t.Run("empty bill asks nothing", func(t *testing.T) {
		b := NewBill(nil, nil)
		asked := false
		if err := b.ClearBill(ConfirmFunc(func(string) bool { asked = true; return true })); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if asked {
			t.Errorf("confirmer asked on empty bill")
		}
	})

	t.Run("confirmed clears", func(t *testing.T) {
		b := NewBill(fakeStock{1: 10}, nil)
		_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 1)
		if err := b.ClearBill(ConfirmFunc(func(string) bool { return true })); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Len() != 0 || !b.TotalAmount().IsZero() {
			t.Errorf("bill not cleared")
		}
	})
}

func TestNotices(t *testing.T) {
	var n Notices
	b := NewBill(fakeStock{1: 10}, &n)
	_ = b.AddToBill(product(1, "Soap", "piece", "35", 10), 2)
	_ = b.AddToBill(product(9, "Salt", "pack", "20", 0), 1)

	if len(n) != 2 {
		t.Fatalf("notices = %+v", n)
	}
	if n[0].Level != LevelInfo || n[0].Message != "Added 2 pieces of Soap" {
		t.Errorf("first notice = %+v", n[0])
	}
	if n[1].Level != LevelWarning || n[1].Message != "Salt is out of stock" {
		t.Errorf("second notice = %+v", n[1])
	}
}
