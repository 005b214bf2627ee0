package models

import "time"

// DamagedInventory is a write-off of product stock.
type DamagedInventory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ShopID     uint      `gorm:"index;not null" json:"shop_id"`
	ProductID  uint      `gorm:"index;not null" json:"product_id"`
	Product    Product   `json:"-"`
	Date       time.Time `gorm:"index;not null" json:"date"`
	Quantity   float64   `gorm:"not null" json:"quantity"`
	Reason     string    `gorm:"size:500;not null" json:"reason"`
	ReportedBy uint      `json:"reported_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
