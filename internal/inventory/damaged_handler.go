package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/billing"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CreateDamagedRequest struct {
	Date      string  `json:"date"` // YYYY-MM-DD, today when empty
	ProductID uint    `json:"product_id" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	Reason    string  `json:"reason" validate:"required,min=3"`
}

type DamagedResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Date        string  `json:"date"`
	Quantity    float64 `json:"quantity"`
	Display     string  `json:"display"`
	Reason      string  `json:"reason"`
	ReportedBy  uint    `json:"reported_by"`
	CreatedAt   string  `json:"created_at"`
}

func toDamagedResponse(d models.DamagedInventory) DamagedResponse {
	return DamagedResponse{
		ID:          d.ID,
		ProductID:   d.ProductID,
		ProductName: d.Product.Name,
		Date:        d.Date.Format(request.DateLayout),
		Quantity:    d.Quantity,
		Display:     units.Format(units.Unit(d.Product.Unit), d.Quantity),
		Reason:      d.Reason,
		ReportedBy:  d.ReportedBy,
		CreatedAt:   d.CreatedAt.Format(time.DateTime),
	}
}

// checkWriteOff validates a damaged quantity against the product.
func checkWriteOff(p models.Product, qty float64) error {
	u := units.Unit(p.Unit)
	if !units.AllowsFraction(u) && !units.IsWhole(qty) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s can only be written off in whole %ss", p.Name, u))
	}
	if qty > p.Stock {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("only %s of %s in stock", units.Format(u, p.Stock), p.Name))
	}
	return nil
}

// POST /api/damaged-inventory
func CreateDamagedHandler(watcher billing.LowStockWatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var body CreateDamagedRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		date := time.Now().UTC().Truncate(24 * time.Hour)
		if body.Date != "" {
			date, err = time.Parse(request.DateLayout, body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
		}

		var product models.Product
		err = database.DB.First(&product, "id = ? AND shop_id = ?", body.ProductID, s.ShopID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load product")
		}

		qty := units.Round(body.Quantity)
		if err := checkWriteOff(product, qty); err != nil {
			return err
		}

		entry := models.DamagedInventory{
			ShopID:     s.ShopID,
			ProductID:  product.ID,
			Date:       date,
			Quantity:   qty,
			Reason:     strings.TrimSpace(body.Reason),
			ReportedBy: s.UserID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Product").Create(&entry).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
				UpdateColumn("stock", gorm.Expr("GREATEST(stock - ?, 0)", qty)).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityDamaged,
				EntityID:    entry.ID,
				Action:      models.LogActionCreate,
				Description: fmt.Sprintf("Damaged: %s %s (%s)", units.Format(units.Unit(product.Unit), qty), product.Name, entry.Reason),
				After:       entry,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("product_id", product.ID).Msg("record damaged inventory failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not record damaged inventory")
		}

		if watcher != nil {
			if err := watcher.CheckLowStock(c.UserContext(), s.ShopID, product.ID); err != nil {
				log.Warn().Err(err).Uint("product_id", product.ID).Msg("low stock check failed")
			}
		}

		entry.Product = product
		return c.Status(fiber.StatusCreated).JSON(toDamagedResponse(entry))
	}
}

// GET /api/damaged-inventory?date_from=&date_to=&product_id=
func ListDamagedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		entries, err := damagedEntries(c, s.ShopID)
		if err != nil {
			return err
		}

		resp := make([]DamagedResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, toDamagedResponse(e))
		}
		return c.JSON(resp)
	}
}

// damagedEntries applies the list filters; the export handler shares it.
func damagedEntries(c *fiber.Ctx, shopID uint) ([]models.DamagedInventory, error) {
	from, to, err := request.DateRange(c)
	if err != nil {
		return nil, err
	}

	query := database.DB.Preload("Product").Where("shop_id = ?", shopID)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}
	if pid := c.QueryInt("product_id"); pid > 0 {
		query = query.Where("product_id = ?", pid)
	}

	var entries []models.DamagedInventory
	if err := query.Order("date DESC, created_at DESC").Find(&entries).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not list damaged inventory")
	}
	return entries, nil
}

// DELETE /api/damaged-inventory/:id returns the quantity to stock.
func DeleteDamagedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}

		var entry models.DamagedInventory
		err = database.DB.First(&entry, "id = ? AND shop_id = ?", id, s.ShopID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "damaged inventory entry not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load damaged inventory entry")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&entry).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", entry.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", entry.Quantity)).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityDamaged,
				EntityID:    entry.ID,
				Action:      models.LogActionDelete,
				Description: fmt.Sprintf("Damaged entry removed: %v (%s)", entry.Quantity, entry.Reason),
				Before:      entry,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("entry_id", entry.ID).Msg("delete damaged inventory failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete damaged inventory entry")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
