package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityProduct  = "product"
	EntitySupplier = "supplier"
	EntityDamaged  = "damaged_inventory"
	EntityPurchase = "purchase_entry"
	EntityReturn   = "return"
)

var (
	ErrLogNotFound   = errors.New("log entry not found")
	ErrAlreadyUndone = errors.New("this change was already undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
)

// undoable lists the entity types whose changes can be reverted.
var undoable = map[string]bool{
	EntityProduct:  true,
	EntitySupplier: true,
	EntityDamaged:  true,
}

type LogOptions struct {
	Session     auth.Session
	EntityType  string
	EntityID    uint
	Action      models.LogAction
	Description string
	Before      any
	After       any
}

// snapshot marshals v for a jsonb column. Postgres rejects an empty string
// there, so absent values are stored as null.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// WriteLog records a change. Pass the open transaction as db so the log
// commits with the change; nil uses database.DB.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	if db == nil {
		db = database.DB
	}
	entry := models.InventoryLog{
		ShopID:      opts.Session.ShopID,
		UserID:      opts.Session.UserID,
		UserName:    opts.Session.Name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write inventory log: %w", err)
	}
	return nil
}

// CheckUndo reports whether entry may be reverted.
func CheckUndo(entry models.InventoryLog) error {
	if entry.IsUndone {
		return ErrAlreadyUndone
	}
	if entry.IsUndoEntry || entry.Action == models.LogActionUndo || !undoable[entry.EntityType] {
		return ErrNotUndoable
	}
	switch entry.Action {
	case models.LogActionCreate, models.LogActionUpdate, models.LogActionDelete:
		return nil
	}
	return ErrNotUndoable
}

// UndoLog reverts one logged change of the caller's shop and records the
// reversal as a new entry.
func UndoLog(s auth.Session, logID uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.InventoryLog
		err := tx.Where("id = ? AND shop_id = ?", logID, s.ShopID).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLogNotFound
		}
		if err != nil {
			return err
		}
		if err := CheckUndo(entry); err != nil {
			return err
		}

		switch entry.Action {
		case models.LogActionCreate:
			err = deleteEntity(tx, entry)
		case models.LogActionUpdate:
			err = restoreEntity(tx, entry)
		case models.LogActionDelete:
			err = recreateEntity(tx, entry)
		}
		if err != nil {
			return fmt.Errorf("undo %s %d: %w", entry.EntityType, entry.EntityID, err)
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &s.UserID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		return tx.Create(&models.InventoryLog{
			ShopID:      entry.ShopID,
			UserID:      s.UserID,
			UserName:    s.Name,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.LogActionUndo,
			Description: "Undone: " + entry.Description,
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
			IsUndoEntry: true,
		}).Error
	})
}

// deleteEntity reverts a create. Removing a damaged record returns its
// quantity to stock.
func deleteEntity(tx *gorm.DB, entry models.InventoryLog) error {
	scope := tx.Where("id = ? AND shop_id = ?", entry.EntityID, entry.ShopID)
	switch entry.EntityType {
	case EntityProduct:
		return scope.Delete(&models.Product{}).Error
	case EntitySupplier:
		return scope.Delete(&models.Supplier{}).Error
	case EntityDamaged:
		var d models.DamagedInventory
		if err := scope.First(&d).Error; err != nil {
			return err
		}
		if err := tx.Delete(&d).Error; err != nil {
			return err
		}
		return adjustStock(tx, d.ProductID, d.Quantity)
	}
	return ErrNotUndoable
}

// recreateEntity reverts a delete from the before snapshot, keeping the
// original id.
func recreateEntity(tx *gorm.DB, entry models.InventoryLog) error {
	switch entry.EntityType {
	case EntityProduct:
		var p models.Product
		if err := decode(entry.BeforeData, &p); err != nil {
			return err
		}
		p.ShopID = entry.ShopID
		return tx.Create(&p).Error
	case EntitySupplier:
		var s models.Supplier
		if err := decode(entry.BeforeData, &s); err != nil {
			return err
		}
		s.ShopID = entry.ShopID
		return tx.Create(&s).Error
	case EntityDamaged:
		var d models.DamagedInventory
		if err := decode(entry.BeforeData, &d); err != nil {
			return err
		}
		d.ShopID = entry.ShopID
		if err := tx.Omit("Product").Create(&d).Error; err != nil {
			return err
		}
		return adjustStock(tx, d.ProductID, -d.Quantity)
	}
	return ErrNotUndoable
}

// restoreEntity reverts an update by writing the before snapshot back.
func restoreEntity(tx *gorm.DB, entry models.InventoryLog) error {
	scope := tx.Where("id = ? AND shop_id = ?", entry.EntityID, entry.ShopID)
	switch entry.EntityType {
	case EntityProduct:
		var p models.Product
		if err := decode(entry.BeforeData, &p); err != nil {
			return err
		}
		return scope.Model(&models.Product{}).Updates(map[string]interface{}{
			"name":                p.Name,
			"category":            p.Category,
			"unit":                p.Unit,
			"price":               p.Price,
			"mrp":                 p.MRP,
			"stock_price":         p.StockPrice,
			"gst_percent":         p.GSTPercent,
			"stock":               p.Stock,
			"sku":                 p.SKU,
			"barcode":             p.Barcode,
			"low_stock_threshold": p.LowStockThreshold,
		}).Error
	case EntitySupplier:
		var s models.Supplier
		if err := decode(entry.BeforeData, &s); err != nil {
			return err
		}
		return scope.Model(&models.Supplier{}).Updates(map[string]interface{}{
			"name":                s.Name,
			"contact_person":      s.ContactPerson,
			"phone":               s.Phone,
			"email":               s.Email,
			"address":             s.Address,
			"city":                s.City,
			"state":               s.State,
			"gst_number":          s.GSTNumber,
			"credit_days":         s.CreditDays,
			"credit_limit":        s.CreditLimit,
			"outstanding_balance": s.OutstandingBalance,
			"payment_status":      s.PaymentStatus,
			"payment_mode":        s.PaymentMode,
		}).Error
	case EntityDamaged:
		var before, current models.DamagedInventory
		if err := decode(entry.BeforeData, &before); err != nil {
			return err
		}
		if err := scope.First(&current).Error; err != nil {
			return err
		}
		if err := scope.Model(&models.DamagedInventory{}).Updates(map[string]interface{}{
			"date":     before.Date,
			"quantity": before.Quantity,
			"reason":   before.Reason,
		}).Error; err != nil {
			return err
		}
		return adjustStock(tx, current.ProductID, current.Quantity-before.Quantity)
	}
	return ErrNotUndoable
}

// adjustStock adds delta to a product's stock, never going below zero.
func adjustStock(tx *gorm.DB, productID uint, delta float64) error {
	return tx.Model(&models.Product{}).Where("id = ?", productID).
		Update("stock", gorm.Expr("GREATEST(stock + ?, 0)", delta)).Error
}

func decode(data string, dst any) error {
	if data == "" || data == "null" {
		return errors.New("no snapshot recorded")
	}
	return json.Unmarshal([]byte(data), dst)
}
