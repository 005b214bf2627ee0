package purchase

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/bulkimport"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/export"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/supplier"
	"retailpos-backend/internal/tax"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrAlreadyTransferred = errors.New("purchase entry was already transferred to inventory")

type PaymentRequest struct {
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	PaymentMode string          `json:"payment_mode"`
}

type TransferResponse struct {
	Entry   models.PurchaseEntry `json:"entry"`
	Created int                  `json:"created"`
	Updated int                  `json:"updated"`
}

// records resolves the lines of a create request, either the caller's
// draft or the typed lines of the body.
func (h *Handlers) records(s auth.Session, body CreateEntryRequest) ([]bulkimport.Record, error) {
	if body.FromDraft {
		var recs []bulkimport.Record
		err := h.Drafts.With(draftKey(s), func(d *bulkimport.Draft) error {
			recs = d.Records()
			return nil
		})
		return recs, err
	}

	recs := make([]bulkimport.Record, 0, len(body.Products))
	var problems []string
	for i, line := range body.Products {
		rec, err := h.Mapper.MapRow(i+1, line.row())
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		recs = append(recs, rec)
	}
	if len(problems) > 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, strings.Join(problems, "; "))
	}
	return recs, nil
}

func loadEntry(db *gorm.DB, shopID, id uint) (models.PurchaseEntry, error) {
	var e models.PurchaseEntry
	err := db.Preload("Supplier").Preload("Products").First(&e, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e, fiber.NewError(fiber.StatusNotFound, "purchase entry not found")
	}
	if err != nil {
		return e, fiber.NewError(fiber.StatusInternalServerError, "could not load purchase entry")
	}
	return e, nil
}

// POST /api/purchases
func (h *Handlers) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body CreateEntryRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		if body.PaidAmount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "paid amount must not be negative")
		}

		sup, err := supplier.Find(database.DB, s.ShopID, body.SupplierID)
		if err != nil {
			return err
		}
		recs, err := h.records(s, body)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "a purchase entry needs at least one product")
		}

		entry, err := BuildEntry(s.ShopID, sup, body, recs)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid bill or due date")
		}
		entry.CreatedBy = s.UserID

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Supplier").Create(&entry).Error; err != nil {
				return err
			}
			if err := supplier.RefreshBalance(tx, s.ShopID, sup.ID); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityPurchase,
				EntityID:    entry.ID,
				Action:      models.LogActionCreate,
				Description: fmt.Sprintf("Purchase entry %s from %s, %d products, %s", entry.BillNumber, sup.Name, len(entry.Products), export.Currency(entry.RoundOff)),
				After:       entry,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("create purchase entry failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not save purchase entry")
		}

		if body.FromDraft {
			h.Drafts.Drop(draftKey(s))
		}
		entry.Supplier = &sup
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// entries applies the list filters; the export handler shares it.
func entries(c *fiber.Ctx, shopID uint) ([]models.PurchaseEntry, error) {
	from, to, err := request.DateRange(c)
	if err != nil {
		return nil, err
	}

	dbq := database.DB.Preload("Supplier").Where("shop_id = ?", shopID)
	if sid := c.QueryInt("supplier_id"); sid > 0 {
		dbq = dbq.Where("supplier_id = ?", sid)
	}
	if st := c.Query("payment_status"); st != "" {
		dbq = dbq.Where("payment_status = ?", st)
	}
	if it := c.Query("invoice_type"); it != "" {
		dbq = dbq.Where("invoice_type = ?", it)
	}
	if from != nil {
		dbq = dbq.Where("bill_date >= ?", *from)
	}
	if to != nil {
		dbq = dbq.Where("bill_date <= ?", *to)
	}

	var list []models.PurchaseEntry
	if err := dbq.Order("bill_date DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not list purchase entries")
	}
	return list, nil
}

// GET /api/purchases?supplier_id=&payment_status=&invoice_type=&date_from=&date_to=
func (h *Handlers) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := entries(c, s.ShopID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/purchases/:id
func (h *Handlers) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		e, err := loadEntry(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

// PATCH /api/purchases/:id/payment
func (h *Handlers) UpdatePayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body PaymentRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		if body.PaidAmount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "paid amount must not be negative")
		}

		e, err := loadEntry(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}
		before := e

		e.PaidAmount = body.PaidAmount
		e.PaymentStatus = string(tax.PaymentStatusFor(e.PaidAmount, e.RoundOff))
		if mode := strings.TrimSpace(body.PaymentMode); mode != "" {
			e.PaymentMode = mode
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.PurchaseEntry{}).Where("id = ?", e.ID).Updates(map[string]interface{}{
				"paid_amount":    e.PaidAmount,
				"payment_status": e.PaymentStatus,
				"payment_mode":   e.PaymentMode,
			}).Error; err != nil {
				return err
			}
			if err := supplier.RefreshBalance(tx, s.ShopID, e.SupplierID); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityPurchase,
				EntityID:    e.ID,
				Action:      models.LogActionUpdate,
				Description: fmt.Sprintf("Payment on %s set to %s (%s)", e.BillNumber, export.Currency(e.PaidAmount), e.PaymentStatus),
				Before:      map[string]any{"paid_amount": before.PaidAmount, "payment_status": before.PaymentStatus},
				After:       map[string]any{"paid_amount": e.PaidAmount, "payment_status": e.PaymentStatus},
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("entry_id", e.ID).Msg("update purchase payment failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update payment")
		}
		return c.JSON(e)
	}
}

// findStockProduct matches a line to an existing product by SKU, then by
// name ignoring case.
func findStockProduct(tx *gorm.DB, shopID uint, line models.PurchaseEntryProduct) (*models.Product, error) {
	var p models.Product
	if sku := strings.TrimSpace(line.SKU); sku != "" {
		err := tx.Where("shop_id = ? AND sku = ?", shopID, sku).First(&p).Error
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	err := tx.Where("shop_id = ? AND LOWER(name) = LOWER(?)", shopID, line.Name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// POST /api/purchases/:id/transfer moves the entry's products into stock.
// The invoice type flips once; a second transfer is rejected.
func (h *Handlers) Transfer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		e, err := loadEntry(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := MarkTransferred(&e, now); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		resp := TransferResponse{}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.PurchaseEntry{}).
				Where("id = ? AND invoice_type = ?", e.ID, models.InvoicePurchaseInventory).
				Updates(map[string]interface{}{
					"invoice_type":   models.InvoiceTransferredInventory,
					"transferred_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrAlreadyTransferred
			}

			for _, line := range e.Products {
				p, err := findStockProduct(tx, s.ShopID, line)
				if err != nil {
					return err
				}
				if p == nil {
					np := NewProduct(s.ShopID, line, h.LowStockThreshold)
					if err := tx.Create(&np).Error; err != nil {
						return fmt.Errorf("create %s: %w", line.Name, err)
					}
					resp.Created++
					if err := audit.WriteLog(tx, audit.LogOptions{
						Session: s, EntityType: audit.EntityProduct, EntityID: np.ID,
						Action:      models.LogActionCreate,
						Description: fmt.Sprintf("Product added by transfer of %s: %s", e.BillNumber, np.Name),
						After:       np,
					}); err != nil {
						return err
					}
					continue
				}

				before := *p
				ApplyLine(p, line)
				if err := tx.Save(p).Error; err != nil {
					return fmt.Errorf("update %s: %w", p.Name, err)
				}
				resp.Updated++
				if err := audit.WriteLog(tx, audit.LogOptions{
					Session: s, EntityType: audit.EntityProduct, EntityID: p.ID,
					Action:      models.LogActionUpdate,
					Description: fmt.Sprintf("Stock received from %s: %s", e.BillNumber, p.Name),
					Before:      before,
					After:       *p,
				}); err != nil {
					return err
				}
			}

			return tx.Create(&models.Notification{
				ShopID:  s.ShopID,
				Type:    models.NotifyTransfer,
				Message: fmt.Sprintf("Purchase %s transferred to inventory: %d new, %d restocked", e.BillNumber, resp.Created, resp.Updated),
			}).Error
		})
		if errors.Is(err, ErrAlreadyTransferred) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			log.Error().Err(err).Uint("entry_id", e.ID).Msg("transfer purchase entry failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not transfer purchase entry")
		}

		resp.Entry = e
		return c.JSON(resp)
	}
}

// GET /api/purchases/:id/pdf
func (h *Handlers) PDF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		e, err := loadEntry(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}
		var shop models.Shop
		if err := database.DB.First(&shop, s.ShopID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load shop")
		}
		return export.Send(c, export.PurchaseFilename(e), "application/pdf", func(w io.Writer) error {
			return export.PurchasePDF(w, shop, e, h.RowsPerPage)
		})
	}
}

// GET /api/purchases/export
func (h *Handlers) Export() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := entries(c, s.ShopID)
		if err != nil {
			return err
		}
		sheet, err := export.PurchaseEntries(list)
		return export.SendSheet(c, "purchases", sheet, err)
	}
}
