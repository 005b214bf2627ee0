package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ShopID            uint            `gorm:"index;not null" json:"shop_id"`
	Name              string          `gorm:"size:150;not null" json:"name"`
	Category          string          `gorm:"size:100;index" json:"category"`
	Unit              string          `gorm:"size:20;not null;default:piece" json:"unit"`
	Price             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	MRP               decimal.Decimal `gorm:"type:numeric(14,2)" json:"mrp"`
	StockPrice        decimal.Decimal `gorm:"type:numeric(14,2)" json:"stock_price"`
	GSTPercent        decimal.Decimal `gorm:"type:numeric(5,2)" json:"gst_percent"`
	Stock             float64         `gorm:"not null;default:0" json:"stock"`
	SKU               *string         `gorm:"size:64;index" json:"sku"`
	Barcode           *string         `gorm:"size:64;index" json:"barcode"`
	SalesCount        float64         `gorm:"not null;default:0" json:"sales_count"`
	LowStockThreshold float64         `gorm:"not null;default:0" json:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DisplayBarcode is the stored barcode, else the SKU, else the last eight
// digits of the zero padded id.
func (p Product) DisplayBarcode() string {
	if p.Barcode != nil && *p.Barcode != "" {
		return *p.Barcode
	}
	if p.SKU != nil && *p.SKU != "" {
		return *p.SKU
	}
	s := fmt.Sprintf("%08d", p.ID)
	return s[len(s)-8:]
}

func (p Product) IsLowStock() bool {
	return p.LowStockThreshold > 0 && p.Stock <= p.LowStockThreshold
}
