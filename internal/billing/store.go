package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/units"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// GormStore implements the checkout ports and product lookups on postgres.
type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.DB.WithContext(ctx).Create(tx).Error
}

// DecrementStock has no compare-and-swap; concurrent sales of the last unit
// can both succeed. Stock is clamped at zero.
func (s GormStore) DecrementStock(ctx context.Context, productID uint, qty float64) error {
	res := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("GREATEST(stock - ?, 0)", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	return nil
}

func (s GormStore) IncrementSales(ctx context.Context, productID uint, qty float64) error {
	res := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sales_count", gorm.Expr("sales_count + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	return nil
}

// CheckLowStock raises one unread notification per product at a time.
func (s GormStore) CheckLowStock(ctx context.Context, shopID, productID uint) error {
	db := s.DB.WithContext(ctx)

	var p models.Product
	if err := db.First(&p, "id = ? AND shop_id = ?", productID, shopID).Error; err != nil {
		return err
	}
	if !p.IsLowStock() {
		return nil
	}

	msg := fmt.Sprintf("Low stock: %s has %s left", p.Name, units.Format(units.Unit(p.Unit), p.Stock))
	prefix := fmt.Sprintf("Low stock: %s has", p.Name)

	var open int64
	if err := db.Model(&models.Notification{}).
		Where("shop_id = ? AND type = ? AND read = ? AND message LIKE ?", shopID, models.NotifyLowStock, false, prefix+"%").
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	return db.Create(&models.Notification{
		ShopID:  shopID,
		Type:    models.NotifyLowStock,
		Message: msg,
	}).Error
}

// ReportFailures raises one notification listing the lines of a sale whose
// stock was not updated.
func (s GormStore) ReportFailures(ctx context.Context, shopID uint, code string, failures []LineFailure) error {
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, fmt.Sprintf("%s (%s)", f.Name, f.Step))
	}
	msg := fmt.Sprintf("Sale %s saved but stock was not updated for: %s", code, strings.Join(names, ", "))
	if r := []rune(msg); len(r) > 500 {
		msg = string(r[:497]) + "..."
	}
	return s.DB.WithContext(ctx).Create(&models.Notification{
		ShopID:  shopID,
		Type:    models.NotifyCheckout,
		Message: msg,
	}).Error
}

func (s GormStore) FindProduct(ctx context.Context, shopID, id uint) (*models.Product, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).First(&p, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return &p, err
}

// FindByBarcode matches the stored barcode, then the SKU, then the id
// suffix printed for products without either.
func (s GormStore) FindByBarcode(ctx context.Context, shopID uint, code string) (*models.Product, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).
		Where("shop_id = ? AND (barcode = ? OR sku = ?)", shopID, code, code).
		First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if id, convErr := strconv.ParseUint(code, 10, 64); convErr == nil && id > 0 {
		return s.FindProduct(ctx, shopID, uint(id))
	}
	return nil, ErrProductNotFound
}

// StockLookup binds live stock reads to one shop.
func (s GormStore) StockLookup(shopID uint) StockLookup {
	return StockLookupFunc(func(productID uint) (float64, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := s.FindProduct(ctx, shopID, productID)
		if err != nil {
			return 0, err
		}
		return p.Stock, nil
	})
}
