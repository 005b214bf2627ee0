package models

import "time"

type ReturnStatus string

const (
	ReturnPending    ReturnStatus = "pending"
	ReturnMistakenly ReturnStatus = "Mistakenly"
	ReturnDamaged    ReturnStatus = "Damaged"
)

func (s ReturnStatus) Terminal() bool {
	return s == ReturnMistakenly || s == ReturnDamaged
}

// ReturnRecord does not touch stock or revenue.
type ReturnRecord struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ShopID        uint         `gorm:"index;not null" json:"shop_id"`
	TransactionID uint         `gorm:"index;not null" json:"transaction_id"`
	Transaction   *Transaction `json:"-"`
	ProductID     uint         `gorm:"index;not null" json:"product_id"`
	ProductName   string       `gorm:"size:150" json:"product_name"`
	Quantity      float64      `gorm:"not null" json:"quantity"`
	Reason        string       `gorm:"size:500" json:"reason"`
	Status        ReturnStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedBy     uint         `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
