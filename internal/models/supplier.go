package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	ShopID             uint            `gorm:"index;not null" json:"shop_id"`
	Name               string          `gorm:"size:150;not null" json:"name"`
	ContactPerson      string          `gorm:"size:100" json:"contact_person"`
	Phone              string          `gorm:"size:50" json:"phone"`
	Email              string          `gorm:"size:100" json:"email"`
	Address            string          `gorm:"size:255" json:"address"`
	City               string          `gorm:"size:100" json:"city"`
	State              string          `gorm:"size:100" json:"state"`
	GSTNumber          string          `gorm:"size:20" json:"gst_number"`
	CreditDays         int             `gorm:"not null;default:0" json:"credit_days"`
	CreditLimit        decimal.Decimal `gorm:"type:numeric(14,2)" json:"credit_limit"`
	OutstandingBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"outstanding_balance"`
	PaymentStatus      string          `gorm:"size:20" json:"payment_status"`
	PaymentMode        string          `gorm:"size:20" json:"payment_mode"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
