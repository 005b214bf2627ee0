// Package export flattens records into sheets and renders them as XLSX
// workbooks or PDF documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/tax"
	"retailpos-backend/internal/units"

	"github.com/shopspring/decimal"
)

var ErrNothingToExport = errors.New("nothing to export")

const (
	DateLayout     = "02-01-2006"
	DateTimeLayout = "02-01-2006 15:04"
)

// Sheet is a flat table. Every row has len(Headers) cells.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func (s Sheet) Empty() bool { return len(s.Rows) == 0 }

// Currency renders an amount as "Rs. 1,234.50".
func Currency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sRs. %s.%s", sign, b.String(), frac)
}

func amount(d decimal.Decimal) string { return d.StringFixed(2) }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func datePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return date(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Products(list []models.Product) (Sheet, error) {
	if len(list) == 0 {
		return Sheet{}, ErrNothingToExport
	}
	s := Sheet{
		Name: "Products",
		Headers: []string{"Product Name", "Category", "SKU", "Barcode", "Unit Type", "Stock",
			"MRP", "Stock Price", "Selling Price", "GST Percentage", "Units Sold"},
	}
	for _, p := range list {
		s.Rows = append(s.Rows, []string{
			p.Name, p.Category, deref(p.SKU), p.DisplayBarcode(), p.Unit,
			units.Format(units.Unit(p.Unit), p.Stock),
			amount(p.MRP), amount(p.StockPrice), amount(p.Price), p.GSTPercent.String(),
			units.Format(units.Unit(p.Unit), p.SalesCount),
		})
	}
	return s, nil
}

// Transactions lists one row per transaction with its item count.
func Transactions(list []models.Transaction) (Sheet, error) {
	if len(list) == 0 {
		return Sheet{}, ErrNothingToExport
	}
	s := Sheet{
		Name:    "Transactions",
		Headers: []string{"Transaction ID", "Date", "Cashier", "Items", "Payment Method", "Total Amount"},
	}
	for _, t := range list {
		items, err := t.Items()
		if err != nil {
			return Sheet{}, fmt.Errorf("transaction %s: %w", t.Code, err)
		}
		s.Rows = append(s.Rows, []string{
			t.Code, t.CreatedAt.Format(DateTimeLayout), t.CashierName,
			fmt.Sprint(len(items)), strings.ToUpper(string(t.PaymentMethod)), amount(t.TotalAmount),
		})
	}
	return s, nil
}

func PurchaseEntries(list []models.PurchaseEntry) (Sheet, error) {
	if len(list) == 0 {
		return Sheet{}, ErrNothingToExport
	}
	s := Sheet{
		Name: "Purchases",
		Headers: []string{"Bill Number", "Bill Date", "Due Date", "Supplier", "Invoice Type",
			"Gross", "Total GST", "Net", "Round Off", "Paid", "Outstanding", "Payment Status"},
	}
	for _, e := range list {
		supplier := ""
		if e.Supplier != nil {
			supplier = e.Supplier.Name
		}
		s.Rows = append(s.Rows, []string{
			e.BillNumber, date(e.BillDate), datePtr(e.DueDate), supplier, string(e.InvoiceType),
			amount(e.Gross), amount(e.TotalGST), amount(e.Net), amount(e.RoundOff),
			amount(e.PaidAmount), amount(tax.Outstanding(e.PaidAmount, e.RoundOff)), e.PaymentStatus,
		})
	}
	return s, nil
}

// Damaged expects Product to be preloaded for the product name column.
func Damaged(list []models.DamagedInventory) (Sheet, error) {
	if len(list) == 0 {
		return Sheet{}, ErrNothingToExport
	}
	s := Sheet{
		Name:    "Damaged Inventory",
		Headers: []string{"Date", "Product Name", "Quantity", "Reason"},
	}
	for _, d := range list {
		s.Rows = append(s.Rows, []string{
			date(d.Date), d.Product.Name, units.Format(units.Unit(d.Product.Unit), d.Quantity), d.Reason,
		})
	}
	return s, nil
}

func Returns(list []models.ReturnRecord) (Sheet, error) {
	if len(list) == 0 {
		return Sheet{}, ErrNothingToExport
	}
	s := Sheet{
		Name:    "Returns",
		Headers: []string{"Date", "Transaction ID", "Product Name", "Quantity", "Reason", "Status"},
	}
	for _, r := range list {
		code := ""
		if r.Transaction != nil {
			code = r.Transaction.Code
		}
		s.Rows = append(s.Rows, []string{
			date(r.CreatedAt), code, r.ProductName, fmt.Sprint(r.Quantity), r.Reason, string(r.Status),
		})
	}
	return s, nil
}

// Filename is prefix_YYYY-MM-DD.ext.
func Filename(prefix string, at time.Time, ext string) string {
	prefix = strings.Trim(safeName.Replace(strings.TrimSpace(prefix)), "_")
	if prefix == "" {
		prefix = "export"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

var safeName = strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "\"", "", "'", "")
