package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentUPI
}

// BillItem is a cart line as it is frozen into a transaction.
type BillItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	Quantity  float64         `json:"quantity"`
}

func (i BillItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromFloat(i.Quantity))
}

type PaymentDetails struct {
	AmountTendered *decimal.Decimal `json:"amount_tendered,omitempty"`
	Change         *decimal.Decimal `json:"change,omitempty"`
	Reference      string           `json:"reference,omitempty"`
}

// Transaction is immutable once written.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"size:40;uniqueIndex;not null" json:"code"`
	ShopID        uint            `gorm:"index;not null" json:"shop_id"`
	CashierID     uint            `gorm:"index" json:"cashier_id"`
	CashierName   string          `gorm:"size:100" json:"cashier_name"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaymentMethod PaymentMethod   `gorm:"size:10;not null" json:"payment_method"`
	ItemsData     string          `gorm:"type:jsonb;not null" json:"-"`
	PaymentData   string          `gorm:"type:jsonb" json:"-"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (t *Transaction) SetItems(items []BillItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	t.ItemsData = string(b)
	return nil
}

func (t Transaction) Items() ([]BillItem, error) {
	var items []BillItem
	if t.ItemsData == "" {
		return items, nil
	}
	err := json.Unmarshal([]byte(t.ItemsData), &items)
	return items, err
}

func (t *Transaction) SetPaymentDetails(d *PaymentDetails) error {
	if d == nil {
		t.PaymentData = "null"
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	t.PaymentData = string(b)
	return nil
}

func (t Transaction) PaymentDetails() (*PaymentDetails, error) {
	if t.PaymentData == "" || t.PaymentData == "null" {
		return nil, nil
	}
	var d PaymentDetails
	if err := json.Unmarshal([]byte(t.PaymentData), &d); err != nil {
		return nil, err
	}
	return &d, nil
}
