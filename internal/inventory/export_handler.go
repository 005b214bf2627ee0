package inventory

import (
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/export"
	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/exports/products
func ExportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var products []models.Product
		if err := database.DB.Where("shop_id = ?", s.ShopID).Order("category asc, name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load products")
		}
		sheet, err := export.Products(products)
		return export.SendSheet(c, "products", sheet, err)
	}
}

// GET /api/exports/damaged-inventory
func ExportDamagedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		entries, err := damagedEntries(c, s.ShopID)
		if err != nil {
			return err
		}
		sheet, err := export.Damaged(entries)
		return export.SendSheet(c, "damaged_inventory", sheet, err)
	}
}
