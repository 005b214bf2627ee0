package models

import "time"

type LogAction string

const (
	LogActionCreate LogAction = "create"
	LogActionUpdate LogAction = "update"
	LogActionDelete LogAction = "delete"
	LogActionUndo   LogAction = "undo"
)

// InventoryLog is the audit trail of inventory affecting changes.
type InventoryLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ShopID   uint   `gorm:"index;not null" json:"shop_id"`
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"`

	// product, supplier, damaged_inventory, purchase_entry ...
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      LogAction `gorm:"size:20" json:"action"`
	Description string    `gorm:"size:255" json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`

	// true on the entry written by an undo
	IsUndoEntry bool `gorm:"default:false" json:"is_undo_entry"`

	IsUndone bool       `gorm:"default:false" json:"is_undone"`
	UndoneBy *uint      `json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
