// Package bulkimport maps spreadsheet rows to purchase entry products.
//
// Rows arrive untyped (header -> cell text). Each row is parsed into a
// Record or rejected with an error naming the row and, for malformed
// cells, the column.
package bulkimport

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"retailpos-backend/internal/tax"
	"retailpos-backend/internal/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ColName         = "Product Name"
	ColCategory     = "Category"
	ColSKU          = "SKU"
	ColUnit         = "Unit Type"
	ColStock        = "Stock"
	ColMRP          = "MRP"
	ColStockPrice   = "Stock Price"
	ColSellingPrice = "Selling Price"
	ColWeightRate   = "Weight Rate"
	ColGST          = "GST Percentage"
)

// Columns in template order.
var Columns = []string{
	ColName, ColCategory, ColSKU, ColUnit, ColStock,
	ColMRP, ColStockPrice, ColSellingPrice, ColWeightRate, ColGST,
}

var (
	ErrMissingName     = errors.New("product name is empty")
	ErrMissingCategory = errors.New("category is empty")
	ErrInvalidStock    = errors.New("stock must be greater than zero")
	ErrInvalidPrice    = errors.New("selling price must be greater than zero")
	ErrNotANumber      = errors.New("not a number")
	ErrFractionalStock = errors.New("unit does not accept fractional stock")
)

// ParseError is a cell that could not be read as its column's type.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Row is one data row keyed by header text.
type Row map[string]string

// Get finds col exactly, then ignoring case and surrounding spaces.
func (r Row) Get(col string) string {
	if v, ok := r[col]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range r {
		if strings.EqualFold(strings.TrimSpace(k), col) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (r Row) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Record is an accepted row, ready to become a purchase entry product.
type Record struct {
	ID           string          `json:"id"`
	Row          int             `json:"row"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	SKU          string          `json:"sku"`
	Unit         units.Unit      `json:"unit"`
	Stock        float64         `json:"stock"`
	MRP          decimal.Decimal `json:"mrp"`
	StockPrice   decimal.Decimal `json:"stock_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	WeightRate   decimal.Decimal `json:"weight_rate"`
	GSTPercent   decimal.Decimal `json:"gst_percent"`
	SGST         decimal.Decimal `json:"sgst"`
	CGST         decimal.Decimal `json:"cgst"`
	Total        decimal.Decimal `json:"total"`
}

// LineTax returns the GST split carried by the record.
func (r Record) LineTax() tax.LineTax {
	return tax.LineTax{Base: r.StockPrice.Mul(decimal.NewFromFloat(r.Stock)), SGST: r.SGST, CGST: r.CGST, Total: r.Total}
}

type Rejection struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
	err    error
}

func (r Rejection) Err() error { return r.err }

type Result struct {
	Accepted      []Record    `json:"accepted"`
	AcceptedCount int         `json:"accepted_count"`
	RejectedCount int         `json:"rejected_count"`
	Rejected      []Rejection `json:"rejected"`
}

// Mapper converts rows. NewID defaults to random UUIDs.
type Mapper struct {
	NewID func() string
}

// Map uses the default mapper.
func Map(rows []Row) Result {
	return Mapper{}.Map(rows)
}

// Map converts rows in order. Rows are numbered as on the sheet, the
// header being row 1. Fully blank rows are skipped without being counted.
func (m Mapper) Map(rows []Row) Result {
	res := Result{Accepted: []Record{}, Rejected: []Rejection{}}
	for i, r := range rows {
		if r.blank() {
			continue
		}
		rowNum := i + 2
		rec, err := m.MapRow(rowNum, r)
		if err != nil {
			rej := Rejection{Row: rowNum, Reason: err.Error(), err: err}
			var pe *ParseError
			if errors.As(err, &pe) {
				rej.Column = pe.Column
			}
			res.Rejected = append(res.Rejected, rej)
			res.RejectedCount++
			continue
		}
		res.Accepted = append(res.Accepted, rec)
		res.AcceptedCount++
	}
	return res
}

// MapRow parses one row. Empty optional cells take their defaults: unit
// piece, numbers zero, SKU empty.
func (m Mapper) MapRow(rowNum int, r Row) (Record, error) {
	name := r.Get(ColName)
	if name == "" {
		return Record{}, fmt.Errorf("row %d: %w", rowNum, ErrMissingName)
	}
	category := r.Get(ColCategory)
	if category == "" {
		return Record{}, fmt.Errorf("row %d: %w", rowNum, ErrMissingCategory)
	}

	unit, err := units.Parse(r.Get(ColUnit))
	if err != nil {
		return Record{}, &ParseError{Row: rowNum, Column: ColUnit, Value: r.Get(ColUnit), Err: err}
	}

	stock, err := parseFloat(rowNum, ColStock, r.Get(ColStock))
	if err != nil {
		return Record{}, err
	}
	if stock <= 0 {
		return Record{}, fmt.Errorf("row %d: %w", rowNum, ErrInvalidStock)
	}
	if !units.AllowsFraction(unit) && !units.IsWhole(stock) {
		return Record{}, &ParseError{Row: rowNum, Column: ColStock, Value: r.Get(ColStock), Err: ErrFractionalStock}
	}

	selling, err := parseMoney(rowNum, ColSellingPrice, r.Get(ColSellingPrice))
	if err != nil {
		return Record{}, err
	}
	if !selling.IsPositive() {
		return Record{}, fmt.Errorf("row %d: %w", rowNum, ErrInvalidPrice)
	}

	rec := Record{
		Row:          rowNum,
		Name:         name,
		Category:     category,
		SKU:          r.Get(ColSKU),
		Unit:         unit,
		Stock:        units.Round(stock),
		SellingPrice: selling,
	}

	optional := []struct {
		col string
		dst *decimal.Decimal
	}{
		{ColMRP, &rec.MRP},
		{ColStockPrice, &rec.StockPrice},
		{ColWeightRate, &rec.WeightRate},
		{ColGST, &rec.GSTPercent},
	}
	for _, o := range optional {
		v, err := parseMoney(rowNum, o.col, r.Get(o.col))
		if err != nil {
			return Record{}, err
		}
		*o.dst = v
	}

	base := rec.StockPrice.Mul(decimal.NewFromFloat(rec.Stock))
	lt := tax.Line(base, rec.GSTPercent, rec.GSTPercent.IsPositive())
	rec.SGST, rec.CGST, rec.Total = lt.SGST, lt.CGST, lt.Total

	newID := m.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rec.ID = newID()
	return rec, nil
}

var numberNoise = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", "%", "", " ", "")

func clean(v string) string {
	return numberNoise.Replace(strings.TrimSpace(v))
}

func parseFloat(row int, col, v string) (float64, error) {
	s := clean(v)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Row: row, Column: col, Value: v, Err: ErrNotANumber}
	}
	return f, nil
}

func parseMoney(row int, col, v string) (decimal.Decimal, error) {
	s := clean(v)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Row: row, Column: col, Value: v, Err: ErrNotANumber}
	}
	return d, nil
}
