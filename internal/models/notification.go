package models

import "time"

type NotificationType string

const (
	NotifyLowStock NotificationType = "low_stock"
	NotifyReturn   NotificationType = "return"
	NotifyTransfer NotificationType = "transfer"
	NotifyCheckout NotificationType = "checkout_failure"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	ShopID    uint             `gorm:"index;not null" json:"shop_id"`
	UserID    *uint            `gorm:"index" json:"user_id"` // nil = every profile of the shop
	Type      NotificationType `gorm:"size:30;not null" json:"type"`
	Message   string           `gorm:"size:500;not null" json:"message"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
