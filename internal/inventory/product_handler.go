package inventory

import (
	"errors"
	"fmt"
	"strings"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/billing"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/tax"
	"retailpos-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductResponse struct {
	models.Product
	DisplayBarcode string      `json:"display_barcode"`
	StockDisplay   string      `json:"stock_display"`
	Step           float64     `json:"step"`
	LowStock       bool        `json:"low_stock"`
	GST            tax.LineTax `json:"gst"`
}

func toProductResponse(p models.Product) ProductResponse {
	u := units.Unit(p.Unit)
	return ProductResponse{
		Product:        p,
		DisplayBarcode: p.DisplayBarcode(),
		StockDisplay:   units.Format(u, p.Stock),
		Step:           units.Step(u),
		LowStock:       p.IsLowStock(),
		GST:            tax.Line(p.Price, p.GSTPercent, p.GSTPercent.IsPositive()),
	}
}

type CreateProductRequest struct {
	Name              string          `json:"name" validate:"required"`
	Category          string          `json:"category" validate:"required"`
	Unit              string          `json:"unit"`
	Price             decimal.Decimal `json:"price"`
	MRP               decimal.Decimal `json:"mrp"`
	StockPrice        decimal.Decimal `json:"stock_price"`
	GSTPercent        decimal.Decimal `json:"gst_percent"`
	Stock             float64         `json:"stock" validate:"gte=0"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	LowStockThreshold *float64        `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

type UpdateProductRequest struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	Unit              *string          `json:"unit"`
	Price             *decimal.Decimal `json:"price"`
	MRP               *decimal.Decimal `json:"mrp"`
	StockPrice        *decimal.Decimal `json:"stock_price"`
	GSTPercent        *decimal.Decimal `json:"gst_percent"`
	Stock             *float64         `json:"stock" validate:"omitempty,gte=0"`
	SKU               *string          `json:"sku"`
	Barcode           *string          `json:"barcode"`
	LowStockThreshold *float64         `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

var hundred = decimal.NewFromInt(100)

// checkProduct enforces the invariants shared by create and update.
func checkProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category must not be empty")
	}
	u, err := units.Parse(p.Unit)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !p.Price.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	}
	if p.MRP.IsNegative() || p.StockPrice.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "mrp and stock price must not be negative")
	}
	if p.GSTPercent.IsNegative() || p.GSTPercent.GreaterThan(hundred) {
		return fiber.NewError(fiber.StatusBadRequest, "gst percent must be between 0 and 100")
	}
	if p.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock must not be negative")
	}
	if !units.AllowsFraction(u) && !units.IsWhole(p.Stock) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s stock must be a whole number", u))
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key")
}

func findProduct(c *fiber.Ctx, shopID uint) (models.Product, error) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		return models.Product{}, err
	}
	var p models.Product
	err = database.DB.First(&p, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return p, fiber.NewError(fiber.StatusInternalServerError, "could not load product")
	}
	return p, nil
}

// GET /api/products?q=&category=&low_stock=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Product{}).Where("shop_id = ?", s.ShopID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name ILIKE ? OR sku ILIKE ? OR barcode = ?", like, like, q)
		}
		if cat := strings.TrimSpace(c.Query("category")); cat != "" {
			dbq = dbq.Where("category = ?", cat)
		}
		if c.QueryBool("low_stock", false) {
			dbq = dbq.Where("low_stock_threshold > 0 AND stock <= low_stock_threshold")
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		p, err := findProduct(c, s.ShopID)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(p))
	}
}

// GET /api/products/barcode/:code
func BarcodeLookupHandler(products billing.ProductFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		code := strings.TrimSpace(c.Params("code"))
		if code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "barcode is required")
		}

		p, err := products.FindByBarcode(c.UserContext(), s.ShopID, code)
		if errors.Is(err, billing.ErrProductNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no product with barcode "+code)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not look up barcode")
		}
		return c.JSON(toProductResponse(*p))
	}
}

// POST /api/products
func CreateProductHandler(defaultThreshold float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		unit, err := units.Parse(body.Unit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p := models.Product{
			ShopID:            s.ShopID,
			Name:              strings.TrimSpace(body.Name),
			Category:          strings.TrimSpace(body.Category),
			Unit:              string(unit),
			Price:             body.Price,
			MRP:               body.MRP,
			StockPrice:        body.StockPrice,
			GSTPercent:        body.GSTPercent,
			Stock:             units.Round(body.Stock),
			SKU:               optional(body.SKU),
			Barcode:           optional(body.Barcode),
			LowStockThreshold: defaultThreshold,
		}
		if body.LowStockThreshold != nil {
			p.LowStockThreshold = *body.LowStockThreshold
		}
		if err := checkProduct(p); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.LogActionCreate,
				Description: fmt.Sprintf("Product added: %s (%s)", p.Name, units.Format(unit, p.Stock)),
				After:       p,
			})
		})
		if err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a product with this SKU already exists")
			}
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("create product failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not create product")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		p, err := findProduct(c, s.ShopID)
		if err != nil {
			return err
		}
		before := p

		var body UpdateProductRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			p.Name = strings.TrimSpace(*body.Name)
		}
		if body.Category != nil {
			p.Category = strings.TrimSpace(*body.Category)
		}
		if body.Unit != nil {
			unit, err := units.Parse(*body.Unit)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			p.Unit = string(unit)
		}
		if body.Price != nil {
			p.Price = *body.Price
		}
		if body.MRP != nil {
			p.MRP = *body.MRP
		}
		if body.StockPrice != nil {
			p.StockPrice = *body.StockPrice
		}
		if body.GSTPercent != nil {
			p.GSTPercent = *body.GSTPercent
		}
		if body.Stock != nil {
			p.Stock = units.Round(*body.Stock)
		}
		if body.SKU != nil {
			p.SKU = optional(*body.SKU)
		}
		if body.Barcode != nil {
			p.Barcode = optional(*body.Barcode)
		}
		if body.LowStockThreshold != nil {
			p.LowStockThreshold = *body.LowStockThreshold
		}
		if err := checkProduct(p); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.LogActionUpdate,
				Description: "Product updated: " + p.Name,
				Before:      before,
				After:       p,
			})
		})
		if err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a product with this SKU already exists")
			}
			log.Error().Err(err).Uint("product_id", p.ID).Msg("update product failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update product")
		}

		return c.JSON(toProductResponse(p))
	}
}

// DELETE /api/products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		p, err := findProduct(c, s.ShopID)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&p).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.LogActionDelete,
				Description: "Product deleted: " + p.Name,
				Before:      p,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("product_id", p.ID).Msg("delete product failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete product")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
