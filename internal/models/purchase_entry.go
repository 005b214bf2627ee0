package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoicePurchaseInventory    InvoiceType = "Purchase_Inventory"
	InvoiceTransferredInventory InvoiceType = "Transferred_Inventory"
)

type PurchaseEntry struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ShopID      uint        `gorm:"index;not null" json:"shop_id"`
	SupplierID  uint        `gorm:"index;not null" json:"supplier_id"`
	Supplier    *Supplier   `json:"supplier,omitempty"`
	BillNumber  string      `gorm:"size:60" json:"bill_number"`
	BillDate    time.Time   `gorm:"index" json:"bill_date"`
	DueDate     *time.Time  `json:"due_date"`
	InvoiceType InvoiceType `gorm:"size:30;not null;default:Purchase_Inventory" json:"invoice_type"`

	Gross            decimal.Decimal `gorm:"type:numeric(14,2)" json:"gross"`
	DiscountPercent  decimal.Decimal `gorm:"type:numeric(7,2)" json:"discount_percent"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(14,2)" json:"discount_amount"`
	SurchargePercent decimal.Decimal `gorm:"type:numeric(7,2)" json:"surcharge_percent"`
	SurchargeAmount  decimal.Decimal `gorm:"type:numeric(14,2)" json:"surcharge_amount"`
	TotalGST         decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_gst"`
	Net              decimal.Decimal `gorm:"type:numeric(14,2)" json:"net"`
	RoundOff         decimal.Decimal `gorm:"type:numeric(14,2)" json:"round_off"`

	PaidAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`
	PaymentStatus string          `gorm:"size:20" json:"payment_status"`
	PaymentMode   string          `gorm:"size:20" json:"payment_mode"`

	TransferredAt *time.Time `json:"transferred_at"`
	CreatedBy     uint       `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Products []PurchaseEntryProduct `gorm:"foreignKey:PurchaseEntryID" json:"products"`
}

func (e PurchaseEntry) Transferred() bool {
	return e.InvoiceType == InvoiceTransferredInventory
}

type PurchaseEntryProduct struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PurchaseEntryID uint            `gorm:"index;not null" json:"purchase_entry_id"`
	DraftKey        string          `gorm:"size:36" json:"draft_key"` // identity assigned at import
	Name            string          `gorm:"size:150;not null" json:"name"`
	Category        string          `gorm:"size:100" json:"category"`
	SKU             string          `gorm:"size:64" json:"sku"`
	Unit            string          `gorm:"size:20" json:"unit"`
	Stock           float64         `gorm:"not null" json:"stock"`
	MRP             decimal.Decimal `gorm:"type:numeric(14,2)" json:"mrp"`
	StockPrice      decimal.Decimal `gorm:"type:numeric(14,2)" json:"stock_price"`
	SellingPrice    decimal.Decimal `gorm:"type:numeric(14,2)" json:"selling_price"`
	WeightRate      decimal.Decimal `gorm:"type:numeric(14,2)" json:"weight_rate"`
	GSTPercent      decimal.Decimal `gorm:"type:numeric(5,2)" json:"gst_percent"`
	SGST            decimal.Decimal `gorm:"type:numeric(14,4)" json:"sgst"`
	CGST            decimal.Decimal `gorm:"type:numeric(14,4)" json:"cgst"`
	Total           decimal.Decimal `gorm:"type:numeric(14,4)" json:"total"`
}
