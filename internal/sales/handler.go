package sales

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/export"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionResponse struct {
	models.Transaction
	Items   []models.BillItem      `json:"items"`
	Payment *models.PaymentDetails `json:"payment_details"`
}

func toResponse(tx models.Transaction) (TransactionResponse, error) {
	items, err := tx.Items()
	if err != nil {
		return TransactionResponse{}, err
	}
	if items == nil {
		items = []models.BillItem{}
	}
	pd, err := tx.PaymentDetails()
	if err != nil {
		return TransactionResponse{}, err
	}
	return TransactionResponse{Transaction: tx, Items: items, Payment: pd}, nil
}

// transactions lists the shop's transactions. Cashiers only see their own.
func transactions(c *fiber.Ctx, s auth.Session) ([]models.Transaction, error) {
	from, to, err := request.DateRange(c)
	if err != nil {
		return nil, err
	}

	q := database.DB.Where("shop_id = ?", s.ShopID)
	if s.Role == models.RoleCashier {
		q = q.Where("cashier_id = ?", s.UserID)
	} else if id := c.QueryInt("cashier_id", 0); id > 0 {
		q = q.Where("cashier_id = ?", id)
	}
	if m := c.Query("payment_method"); m != "" {
		if !models.PaymentMethod(m).Valid() {
			return nil, fiber.NewError(fiber.StatusBadRequest, "payment_method must be cash, card or upi")
		}
		q = q.Where("payment_method = ?", m)
	}
	if code := strings.TrimSpace(c.Query("q")); code != "" {
		q = q.Where("code ILIKE ?", "%"+code+"%")
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var list []models.Transaction
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("list transactions failed")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not load transactions")
	}
	return list, nil
}

func findTransaction(s auth.Session, id uint) (models.Transaction, error) {
	var tx models.Transaction
	q := database.DB.Where("id = ? AND shop_id = ?", id, s.ShopID)
	if s.Role == models.RoleCashier {
		q = q.Where("cashier_id = ?", s.UserID)
	}
	err := q.First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx, fiber.NewError(fiber.StatusNotFound, "transaction not found")
	}
	if err != nil {
		return tx, fiber.NewError(fiber.StatusInternalServerError, "could not load transaction")
	}
	return tx, nil
}

// GET /api/transactions?date_from=&date_to=&payment_method=&cashier_id=&q=
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := transactions(c, s)
		if err != nil {
			return err
		}

		out := make([]TransactionResponse, 0, len(list))
		for _, tx := range list {
			r, err := toResponse(tx)
			if err != nil {
				log.Error().Err(err).Uint("transaction_id", tx.ID).Msg("transaction data unreadable")
				r = TransactionResponse{Transaction: tx, Items: []models.BillItem{}}
			}
			out = append(out, r)
		}
		return c.JSON(out)
	}
}

// GET /api/transactions/:id
func GetTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		tx, err := findTransaction(s, id)
		if err != nil {
			return err
		}
		r, err := toResponse(tx)
		if err != nil {
			log.Error().Err(err).Uint("transaction_id", tx.ID).Msg("transaction data unreadable")
			return fiber.NewError(fiber.StatusInternalServerError, "transaction data is unreadable")
		}
		return c.JSON(r)
	}
}

// GET /api/transactions/:id/invoice
func InvoiceHandler(rowsPerPage int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		tx, err := findTransaction(s, id)
		if err != nil {
			return err
		}
		var shop models.Shop
		if err := database.DB.First(&shop, s.ShopID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load shop")
		}
		return export.Send(c, export.InvoiceFilename(tx), "application/pdf", func(w io.Writer) error {
			return export.InvoicePDF(w, shop, tx, rowsPerPage)
		})
	}
}

// GET /api/transactions/export
func ExportTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := transactions(c, s)
		if err != nil {
			return err
		}
		sheet, err := export.Transactions(list)
		return export.SendSheet(c, "transactions", sheet, err)
	}
}

// GET /api/reports/sales-chart?period=daily&count=7
func ChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		period, count := ParsePeriod(c.Query("period"))
		if raw := c.Query("count"); raw != "" {
			var n int
			if _, err := fmt.Sscan(raw, &n); err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
			}
			count = n
		}

		now := time.Now()
		start, end := Window(period, count, now)

		var list []models.Transaction
		if err := database.DB.
			Select("id", "total_amount", "payment_method", "created_at").
			Where("shop_id = ? AND created_at >= ? AND created_at < ?", s.ShopID, start, end).
			Find(&list).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("sales chart query failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not build sales chart")
		}
		return c.JSON(BuildChart(period, count, now, list))
	}
}

// GET /api/reports/summary?date_from=&date_to=&top=5
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := transactions(c, s)
		if err != nil {
			return err
		}
		return c.JSON(Summarize(list, c.QueryInt("top", 5)))
	}
}

type TopProduct struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Unit       string          `json:"unit"`
	Price      decimal.Decimal `json:"price"`
	SalesCount float64         `json:"sales_count"`
	Display    string          `json:"display"`
	Stock      float64         `json:"stock"`
}

// GET /api/reports/top-products?limit=10
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", 10)
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		var products []models.Product
		if err := database.DB.
			Where("shop_id = ? AND sales_count > 0", s.ShopID).
			Order("sales_count DESC, id ASC").
			Limit(limit).
			Find(&products).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("top products query failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not load top products")
		}

		out := make([]TopProduct, 0, len(products))
		for _, p := range products {
			out = append(out, TopProduct{
				ID:         p.ID,
				Name:       p.Name,
				Category:   p.Category,
				Unit:       p.Unit,
				Price:      p.Price,
				SalesCount: p.SalesCount,
				Display:    units.Format(units.Unit(p.Unit), p.SalesCount),
				Stock:      p.Stock,
			})
		}
		return c.JSON(out)
	}
}
