// Package purchase records supplier bills. Lines come from a per-profile
// draft filled by spreadsheet uploads, or straight from the request body,
// and become stock only when the entry is transferred.
package purchase

import (
	"strings"
	"time"

	"retailpos-backend/internal/bulkimport"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/tax"
	"retailpos-backend/internal/units"

	"github.com/shopspring/decimal"
)

type LineRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	SKU          string          `json:"sku"`
	Unit         string          `json:"unit"`
	Stock        float64         `json:"stock"`
	MRP          decimal.Decimal `json:"mrp"`
	StockPrice   decimal.Decimal `json:"stock_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	WeightRate   decimal.Decimal `json:"weight_rate"`
	GSTPercent   decimal.Decimal `json:"gst_percent"`
}

// row lets typed lines share the spreadsheet validation path.
func (l LineRequest) row() bulkimport.Row {
	num := func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return d.String()
	}
	return bulkimport.Row{
		bulkimport.ColName:         l.Name,
		bulkimport.ColCategory:     l.Category,
		bulkimport.ColSKU:          l.SKU,
		bulkimport.ColUnit:         l.Unit,
		bulkimport.ColStock:        decimal.NewFromFloat(l.Stock).String(),
		bulkimport.ColMRP:          num(l.MRP),
		bulkimport.ColStockPrice:   num(l.StockPrice),
		bulkimport.ColSellingPrice: num(l.SellingPrice),
		bulkimport.ColWeightRate:   num(l.WeightRate),
		bulkimport.ColGST:          num(l.GSTPercent),
	}
}

type CreateEntryRequest struct {
	SupplierID       uint            `json:"supplier_id" validate:"required"`
	BillNumber       string          `json:"bill_number" validate:"required"`
	BillDate         string          `json:"bill_date" validate:"required,datetime=2006-01-02"`
	DueDate          string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	SurchargePercent decimal.Decimal `json:"surcharge_percent"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	PaymentMode      string          `json:"payment_mode"`
	FromDraft        bool            `json:"from_draft"`
	Products         []LineRequest   `json:"products"`
}

// productFrom freezes an accepted record into an entry line.
func productFrom(r bulkimport.Record) models.PurchaseEntryProduct {
	return models.PurchaseEntryProduct{
		DraftKey:     r.ID,
		Name:         r.Name,
		Category:     r.Category,
		SKU:          r.SKU,
		Unit:         string(r.Unit),
		Stock:        r.Stock,
		MRP:          r.MRP,
		StockPrice:   r.StockPrice,
		SellingPrice: r.SellingPrice,
		WeightRate:   r.WeightRate,
		GSTPercent:   r.GSTPercent,
		SGST:         r.SGST,
		CGST:         r.CGST,
		Total:        r.Total,
	}
}

// BuildEntry totals records into an unsaved purchase entry. The due date
// defaults to the bill date plus the supplier's credit days.
func BuildEntry(shopID uint, supplier models.Supplier, req CreateEntryRequest, records []bulkimport.Record) (models.PurchaseEntry, error) {
	billDate, err := time.Parse(time.DateOnly, req.BillDate)
	if err != nil {
		return models.PurchaseEntry{}, err
	}
	var due *time.Time
	if req.DueDate != "" {
		d, err := time.Parse(time.DateOnly, req.DueDate)
		if err != nil {
			return models.PurchaseEntry{}, err
		}
		due = &d
	} else if supplier.CreditDays > 0 {
		d := billDate.AddDate(0, 0, supplier.CreditDays)
		due = &d
	}

	lines := make([]tax.LineTax, 0, len(records))
	products := make([]models.PurchaseEntryProduct, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.LineTax())
		products = append(products, productFrom(r))
	}
	sum := tax.Aggregate(lines, req.DiscountPercent, req.SurchargePercent)

	mode := strings.TrimSpace(req.PaymentMode)
	if mode == "" {
		mode = supplier.PaymentMode
	}

	return models.PurchaseEntry{
		ShopID:           shopID,
		SupplierID:       supplier.ID,
		BillNumber:       strings.TrimSpace(req.BillNumber),
		BillDate:         billDate,
		DueDate:          due,
		InvoiceType:      models.InvoicePurchaseInventory,
		Gross:            sum.Gross,
		DiscountPercent:  req.DiscountPercent,
		DiscountAmount:   sum.DiscountAmount,
		SurchargePercent: req.SurchargePercent,
		SurchargeAmount:  sum.SurchargeAmount,
		TotalGST:         sum.TotalGST,
		Net:              sum.Net,
		RoundOff:         sum.RoundOff,
		PaidAmount:       req.PaidAmount,
		PaymentStatus:    string(tax.PaymentStatusFor(req.PaidAmount, sum.RoundOff)),
		PaymentMode:      mode,
		Products:         products,
	}, nil
}

// MarkTransferred flips e to Transferred_Inventory. The flip is one-way.
func MarkTransferred(e *models.PurchaseEntry, at time.Time) error {
	if e.Transferred() {
		return ErrAlreadyTransferred
	}
	e.InvoiceType = models.InvoiceTransferredInventory
	e.TransferredAt = &at
	return nil
}

// ApplyLine folds a transferred line into an existing product: stock is
// added and prices and GST follow the latest bill
// where it carries them.
func ApplyLine(p *models.Product, line models.PurchaseEntryProduct) {
	p.Stock = units.Round(p.Stock + line.Stock)
	if line.SellingPrice.IsPositive() {
		p.Price = line.SellingPrice
	}
	if line.MRP.IsPositive() {
		p.MRP = line.MRP
	}
	if line.StockPrice.IsPositive() {
		p.StockPrice = line.StockPrice
	}
	if line.GSTPercent.IsPositive() {
		p.GSTPercent = line.GSTPercent
	}
	if p.Category == "" {
		p.Category = line.Category
	}
}

// NewProduct creates the product a transferred line describes.
func NewProduct(shopID uint, line models.PurchaseEntryProduct, threshold float64) models.Product {
	p := models.Product{
		ShopID:            shopID,
		Name:              line.Name,
		Category:          line.Category,
		Unit:              line.Unit,
		LowStockThreshold: threshold,
	}
	if p.Unit == "" {
		p.Unit = string(units.Piece)
	}
	if sku := strings.TrimSpace(line.SKU); sku != "" {
		p.SKU = &sku
	}
	ApplyLine(&p, line)
	return p
}
