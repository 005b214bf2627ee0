package billing

import (
	"errors"
	"fmt"
	"math"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/units"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrExceedsStock    = errors.New("quantity exceeds available stock")
	ErrFractional      = errors.New("unit does not accept fractional quantities")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrLineNotFound    = errors.New("bill line not found")
	ErrNotConfirmed    = errors.New("clearing the bill was not confirmed")
	ErrNoStockLookup   = errors.New("no stock lookup configured")
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notifier receives the user facing outcome of every bill operation.
type Notifier interface {
	Notify(level Level, msg string)
}

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notices collects notifications, one request at a time.
type Notices []Notice

func (n *Notices) Notify(level Level, msg string) {
	*n = append(*n, Notice{Level: level, Message: msg})
}

type discard struct{}

func (discard) Notify(Level, string) {}

// StockLookup returns the live stock of a product.
type StockLookup interface {
	Stock(productID uint) (float64, error)
}

type StockLookupFunc func(productID uint) (float64, error)

func (f StockLookupFunc) Stock(productID uint) (float64, error) { return f(productID) }

// Confirmer asks the user before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Line is one bill row. Name, Price and Unit are snapshots taken when the
// product was added.
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Unit      units.Unit      `json:"unit"`
	Quantity  float64         `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromFloat(l.Quantity))
}

func (l Line) Display() string {
	return units.Format(l.Unit, l.Quantity)
}

func (l Line) Item() models.BillItem {
	return models.BillItem{
		ProductID: l.ProductID,
		Name:      l.Name,
		Price:     l.Price,
		Unit:      string(l.Unit),
		Quantity:  l.Quantity,
	}
}

// Bill is the in-progress cart of one cashier. It is not safe for
// concurrent use; workspace.Registry serializes access.
type Bill struct {
	lines []Line
	stock StockLookup
	sink  Notifier
}

func NewBill(stock StockLookup, sink Notifier) *Bill {
	if sink == nil {
		sink = discard{}
	}
	return &Bill{stock: stock, sink: sink}
}

// SetNotifier swaps the sink, used to collect messages per request.
func (b *Bill) SetNotifier(n Notifier) {
	if n == nil {
		n = discard{}
	}
	b.sink = n
}

func (b *Bill) warn(err error, format string, args ...any) error {
	b.sink.Notify(LevelWarning, fmt.Sprintf(format, args...))
	return err
}

func (b *Bill) info(format string, args ...any) {
	b.sink.Notify(LevelInfo, fmt.Sprintf(format, args...))
}

func unitOf(p models.Product) units.Unit {
	u, err := units.Parse(p.Unit)
	if err != nil {
		return units.Unit(p.Unit)
	}
	return u
}

func (b *Bill) indexOf(productID uint) int {
	for i, l := range b.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddToBill adds qty of p, merging into an existing line for the same
// product. Discrete units are capped at p.Stock; continuous units are not.
func (b *Bill) AddToBill(p models.Product, qty float64) error {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return b.warn(ErrInvalidQuantity, "Quantity for %s must be greater than zero", p.Name)
	}
	qty = units.Round(qty)
	if qty <= 0 {
		return b.warn(ErrInvalidQuantity, "Quantity for %s must be greater than zero", p.Name)
	}
	if p.Stock <= 0 {
		return b.warn(ErrOutOfStock, "%s is out of stock", p.Name)
	}

	unit := unitOf(p)
	if !units.AllowsFraction(unit) && !units.IsWhole(qty) {
		return b.warn(ErrFractional, "%s is sold per %s, enter a whole quantity", p.Name, unit)
	}
	continuous := units.IsContinuous(unit)

	if i := b.indexOf(p.ID); i >= 0 {
		next := units.Round(b.lines[i].Quantity + qty)
		if !continuous && next > p.Stock {
			return b.warn(ErrExceedsStock, "Only %s of %s in stock", units.Format(unit, p.Stock), p.Name)
		}
		b.lines[i].Quantity = next
		b.info("%s now %s", p.Name, b.lines[i].Display())
		return nil
	}

	if !continuous && qty > p.Stock {
		return b.warn(ErrExceedsStock, "Only %s of %s in stock", units.Format(unit, p.Stock), p.Name)
	}

	b.lines = append(b.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Unit:      unit,
		Quantity:  qty,
	})
	b.info("Added %s of %s", units.Format(unit, qty), p.Name)
	return nil
}

// UpdateQuantity sets the quantity of line i. A quantity that rounds to
// zero or below removes it.
// Discrete lines are checked against the live product stock.
func (b *Bill) UpdateQuantity(i int, qty float64) error {
	if i < 0 || i >= len(b.lines) {
		return b.warn(ErrLineNotFound, "Item is no longer on the bill")
	}
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return b.warn(ErrInvalidQuantity, "Invalid quantity")
	}
	qty = units.Round(qty)
	if qty <= 0 {
		return b.RemoveItem(i)
	}

	line := b.lines[i]
	if !units.AllowsFraction(line.Unit) && !units.IsWhole(qty) {
		return b.warn(ErrFractional, "%s is sold per %s, enter a whole quantity", line.Name, line.Unit)
	}

	if !units.IsContinuous(line.Unit) {
		if b.stock == nil {
			return b.warn(ErrNoStockLookup, "Could not check stock for %s", line.Name)
		}
		available, err := b.stock.Stock(line.ProductID)
		if err != nil {
			return b.warn(fmt.Errorf("stock lookup for product %d: %w", line.ProductID, err),
				"Could not check stock for %s", line.Name)
		}
		if qty > available {
			return b.warn(ErrExceedsStock, "Only %s of %s in stock", units.Format(line.Unit, available), line.Name)
		}
	}

	b.lines[i].Quantity = qty
	b.info("%s now %s", line.Name, b.lines[i].Display())
	return nil
}

func (b *Bill) RemoveItem(i int) error {
	if i < 0 || i >= len(b.lines) {
		return b.warn(ErrLineNotFound, "Item is no longer on the bill")
	}
	name := b.lines[i].Name
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	b.info("Removed %s", name)
	return nil
}

// ClearBill discards every line once confirm agrees. Clearing an empty
// bill is a no-op and asks nothing.
func (b *Bill) ClearBill(confirm Confirmer) error {
	if len(b.lines) == 0 {
		return nil
	}
	prompt := fmt.Sprintf("Clear all %d items from the bill?", len(b.lines))
	if confirm == nil || !confirm.Confirm(prompt) {
		return b.warn(ErrNotConfirmed, "Bill was not cleared")
	}
	b.lines = nil
	b.info("Bill cleared")
	return nil
}

// Increment steps line i up by its unit step.
func (b *Bill) Increment(i int) error {
	if i < 0 || i >= len(b.lines) {
		return b.warn(ErrLineNotFound, "Item is no longer on the bill")
	}
	l := b.lines[i]
	return b.UpdateQuantity(i, units.Round(l.Quantity+units.Step(l.Unit)))
}

// Decrement steps line i down, floored at zero which removes the line.
func (b *Bill) Decrement(i int) error {
	if i < 0 || i >= len(b.lines) {
		return b.warn(ErrLineNotFound, "Item is no longer on the bill")
	}
	l := b.lines[i]
	next := units.Round(l.Quantity - units.Step(l.Unit))
	if next < 0 {
		next = 0
	}
	return b.UpdateQuantity(i, next)
}

// TotalAmount is recomputed from the lines on every call.
func (b *Bill) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.lines {
		total = total.Add(l.Total())
	}
	return total
}

func (b *Bill) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Bill) Len() int { return len(b.lines) }

func (b *Bill) Items() []models.BillItem {
	items := make([]models.BillItem, 0, len(b.lines))
	for _, l := range b.lines {
		items = append(items, l.Item())
	}
	return items
}

func (b *Bill) reset() { b.lines = nil }
