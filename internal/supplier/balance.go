package supplier

import (
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/tax"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Balance sums what is owed on a supplier's purchase entries. The payable
// amount of an entry is its rounded net.
func Balance(entries []models.PurchaseEntry) (outstanding decimal.Decimal, status tax.PaymentStatus) {
	paid, due := decimal.Zero, decimal.Zero
	outstanding = decimal.Zero
	for _, e := range entries {
		paid = paid.Add(e.PaidAmount)
		due = due.Add(e.RoundOff)
		outstanding = outstanding.Add(tax.Outstanding(e.PaidAmount, e.RoundOff))
	}
	return outstanding, tax.PaymentStatusFor(paid, due)
}

// RefreshBalance recomputes the stored outstanding balance and payment
// status of a supplier from its purchase entries.
func RefreshBalance(tx *gorm.DB, shopID, supplierID uint) error {
	var entries []models.PurchaseEntry
	if err := tx.Select("paid_amount", "round_off").
		Where("shop_id = ? AND supplier_id = ?", shopID, supplierID).
		Find(&entries).Error; err != nil {
		return err
	}
	outstanding, status := Balance(entries)
	return tx.Model(&models.Supplier{}).
		Where("id = ? AND shop_id = ?", supplierID, shopID).
		Updates(map[string]interface{}{
			"outstanding_balance": outstanding,
			"payment_status":      string(status),
		}).Error
}
