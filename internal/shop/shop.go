// Package shop manages the shop profile, its staff profiles and the custom
// roles that grant staff their permissions.
package shop

import (
	"context"
	"regexp"
	"strings"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const DefaultInvoiceTag = "TXN"

var invoiceTag = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

type UpdateShopRequest struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	Phone      *string `json:"phone"`
	GSTNumber  *string `json:"gst_number" validate:"omitempty,len=15"`
	InvoiceTag *string `json:"invoice_tag"`
}

// NormalizeTag upper-cases a transaction code prefix and checks it is 2 to
// 10 letters or digits.
func NormalizeTag(raw string) (string, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	if !invoiceTag.MatchString(tag) {
		return "", fiber.NewError(fiber.StatusBadRequest, "invoice_tag must be 2 to 10 letters or digits")
	}
	return tag, nil
}

func (r UpdateShopRequest) apply(s *models.Shop) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
		}
		s.Name = name
	}
	if r.Address != nil {
		s.Address = strings.TrimSpace(*r.Address)
	}
	if r.Phone != nil {
		s.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.GSTNumber != nil {
		s.GSTNumber = strings.ToUpper(strings.TrimSpace(*r.GSTNumber))
	}
	if r.InvoiceTag != nil {
		tag, err := NormalizeTag(*r.InvoiceTag)
		if err != nil {
			return err
		}
		s.InvoiceTag = tag
	}
	return nil
}

// InvoiceTagLookup resolves the transaction code prefix of a shop, falling
// back to TXN when the shop has none or cannot be read.
func InvoiceTagLookup(db *gorm.DB) func(ctx context.Context, shopID uint) string {
	return func(ctx context.Context, shopID uint) string {
		var s models.Shop
		if err := db.WithContext(ctx).Select("id", "invoice_tag").First(&s, shopID).Error; err != nil {
			log.Warn().Err(err).Uint("shop_id", shopID).Msg("invoice tag lookup failed")
			return DefaultInvoiceTag
		}
		if s.InvoiceTag == "" {
			return DefaultInvoiceTag
		}
		return s.InvoiceTag
	}
}

// GET /api/shop
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var shop models.Shop
		if err := database.DB.First(&shop, s.ShopID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "shop not found")
		}
		return c.JSON(shop)
	}
}

// PUT /api/shop
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body UpdateShopRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		var shop models.Shop
		if err := database.DB.First(&shop, s.ShopID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "shop not found")
		}
		if err := body.apply(&shop); err != nil {
			return err
		}
		if err := database.DB.Save(&shop).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", shop.ID).Msg("update shop failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update shop")
		}
		return c.JSON(shop)
	}
}
