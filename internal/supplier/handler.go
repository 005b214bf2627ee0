package supplier

import (
	"errors"
	"fmt"
	"strings"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/tax"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name          string           `json:"name" validate:"required"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email" validate:"omitempty,email"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	State         string           `json:"state"`
	GSTNumber     string           `json:"gst_number" validate:"omitempty,len=15"`
	CreditDays    int              `json:"credit_days" validate:"gte=0"`
	CreditLimit   *decimal.Decimal `json:"credit_limit"`
	PaymentMode   string           `json:"payment_mode"`
}

func (r SupplierRequest) apply(s *models.Supplier) error {
	s.Name = strings.TrimSpace(r.Name)
	if s.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
	}
	s.ContactPerson = strings.TrimSpace(r.ContactPerson)
	s.Phone = strings.TrimSpace(r.Phone)
	s.Email = strings.TrimSpace(r.Email)
	s.Address = strings.TrimSpace(r.Address)
	s.City = strings.TrimSpace(r.City)
	s.State = strings.TrimSpace(r.State)
	s.GSTNumber = strings.ToUpper(strings.TrimSpace(r.GSTNumber))
	s.CreditDays = r.CreditDays
	s.PaymentMode = strings.TrimSpace(r.PaymentMode)
	if r.CreditLimit != nil {
		if r.CreditLimit.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "credit limit must not be negative")
		}
		s.CreditLimit = *r.CreditLimit
	}
	return nil
}

type SupplierResponse struct {
	models.Supplier
	OverCreditLimit bool `json:"over_credit_limit"`
}

func toResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		Supplier:        s,
		OverCreditLimit: s.CreditLimit.IsPositive() && s.OutstandingBalance.GreaterThan(s.CreditLimit),
	}
}

// Find loads a supplier of the shop, mapping a miss to 404.
func Find(db *gorm.DB, shopID, id uint) (models.Supplier, error) {
	var s models.Supplier
	err := db.First(&s, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, fiber.NewError(fiber.StatusNotFound, "supplier not found")
	}
	if err != nil {
		return s, fiber.NewError(fiber.StatusInternalServerError, "could not load supplier")
	}
	return s, nil
}

// POST /api/suppliers
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body SupplierRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		s := models.Supplier{
			ShopID:             sess.ShopID,
			OutstandingBalance: decimal.Zero,
			PaymentStatus:      string(tax.Paid),
		}
		if err := body.apply(&s); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     sess,
				EntityType:  audit.EntitySupplier,
				EntityID:    s.ID,
				Action:      models.LogActionCreate,
				Description: "Supplier added: " + s.Name,
				After:       s,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("shop_id", sess.ShopID).Msg("create supplier failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not create supplier")
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(s))
	}
}

// GET /api/suppliers?q=&status=
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("shop_id = ?", sess.ShopID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name ILIKE ? OR contact_person ILIKE ? OR phone ILIKE ?", like, like, like)
		}
		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("payment_status = ?", st)
		}

		var list []models.Supplier
		if err := dbq.Order("name asc").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list suppliers")
		}
		resp := make([]SupplierResponse, 0, len(list))
		for _, s := range list {
			resp = append(resp, toResponse(s))
		}
		return c.JSON(resp)
	}
}

// GET /api/suppliers/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := Find(database.DB, sess.ShopID, id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(s))
	}
}

// PUT /api/suppliers/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := Find(database.DB, sess.ShopID, id)
		if err != nil {
			return err
		}
		before := s

		var body SupplierRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		if err := body.apply(&s); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&s).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     sess,
				EntityType:  audit.EntitySupplier,
				EntityID:    s.ID,
				Action:      models.LogActionUpdate,
				Description: "Supplier updated: " + s.Name,
				Before:      before,
				After:       s,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("supplier_id", s.ID).Msg("update supplier failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update supplier")
		}
		return c.JSON(toResponse(s))
	}
}

// DELETE /api/suppliers/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := Find(database.DB, sess.ShopID, id)
		if err != nil {
			return err
		}

		var entries int64
		if err := database.DB.Model(&models.PurchaseEntry{}).Where("supplier_id = ?", s.ID).Count(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check purchase entries")
		}
		if entries > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("%s has %d purchase entries and cannot be deleted", s.Name, entries))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&s).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Session:     sess,
				EntityType:  audit.EntitySupplier,
				EntityID:    s.ID,
				Action:      models.LogActionDelete,
				Description: "Supplier deleted: " + s.Name,
				Before:      s,
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("supplier_id", s.ID).Msg("delete supplier failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete supplier")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
