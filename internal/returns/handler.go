package returns

import (
	"errors"
	"fmt"
	"strings"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/export"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CreateReturnRequest struct {
	TransactionID   uint    `json:"transaction_id"`
	TransactionCode string  `json:"transaction_code"`
	ProductID       uint    `json:"product_id" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	Reason          string  `json:"reason" validate:"required,min=3,max=500"`

	Status models.ReturnStatus `json:"status"`
}

type UpdateStatusRequest struct {
	Status models.ReturnStatus `json:"status" validate:"required"`
}

type ReturnResponse struct {
	models.ReturnRecord
	TransactionCode string `json:"transaction_code"`
	Display         string `json:"display"`
}

func toResponse(r models.ReturnRecord, unit string) ReturnResponse {
	resp := ReturnResponse{ReturnRecord: r, Display: units.Format(units.Unit(unit), r.Quantity)}
	if r.Transaction != nil {
		resp.TransactionCode = r.Transaction.Code
	}
	return resp
}

// statusOf maps return rule violations onto HTTP errors.
func statusOf(err error) error {
	switch {
	case errors.Is(err, ErrProductNotSold):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrExceedsSold), errors.Is(err, ErrStatusFinal):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrFractional), errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "return could not be processed")
}

func findTransaction(db *gorm.DB, shopID uint, body CreateReturnRequest) (models.Transaction, error) {
	var tx models.Transaction
	q := db.Where("shop_id = ?", shopID)
	switch {
	case body.TransactionID > 0:
		q = q.Where("id = ?", body.TransactionID)
	case strings.TrimSpace(body.TransactionCode) != "":
		q = q.Where("code = ?", strings.TrimSpace(body.TransactionCode))
	default:
		return tx, fiber.NewError(fiber.StatusBadRequest, "transaction_id or transaction_code is required")
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

// POST /api/returns
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body CreateReturnRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		status, err := InitialStatus(body.Status)
		if err != nil {
			return statusOf(err)
		}

		var rec models.ReturnRecord
		var unit string
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			sale, err := findTransaction(tx, s.ShopID, body)
			if err != nil {
				return err
			}
			items, err := sale.Items()
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "transaction items are unreadable")
			}

			var earlier []models.ReturnRecord
			if err := tx.Where("transaction_id = ? AND product_id = ?", sale.ID, body.ProductID).
				Find(&earlier).Error; err != nil {
				return err
			}

			line, err := Check(items, earlier, body.ProductID, body.Quantity)
			if err != nil {
				return statusOf(err)
			}
			unit = line.Unit

			rec = models.ReturnRecord{
				ShopID:        s.ShopID,
				TransactionID: sale.ID,
				Transaction:   &sale,
				ProductID:     line.ProductID,
				ProductName:   line.Name,
				Quantity:      units.Round(body.Quantity),
				Reason:        strings.TrimSpace(body.Reason),
				Status:        status,
				CreatedBy:     s.UserID,
			}
			if err := tx.Omit("Transaction").Create(&rec).Error; err != nil {
				return err
			}

			if err := tx.Create(&models.Notification{
				ShopID: s.ShopID,
				Type:   models.NotifyReturn,
				Message: fmt.Sprintf("Return of %s %s on %s: %s",
					units.Format(units.Unit(unit), rec.Quantity), line.Name, sale.Code, rec.Reason),
			}).Error; err != nil {
				return err
			}

			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityReturn,
				EntityID:    rec.ID,
				Action:      models.LogActionCreate,
				Description: fmt.Sprintf("Return recorded for %s on %s", line.Name, sale.Code),
				After:       rec,
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("create return failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not record return")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(rec, unit))
	}
}

// returnsOf lists returns of the shop filtered by status and date range.
func returnsOf(c *fiber.Ctx, shopID uint) ([]models.ReturnRecord, error) {
	from, to, err := request.DateRange(c)
	if err != nil {
		return nil, err
	}

	q := database.DB.Preload("Transaction").Where("shop_id = ?", shopID)
	if st := c.Query("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	if id := c.QueryInt("transaction_id", 0); id > 0 {
		q = q.Where("transaction_id = ?", id)
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var list []models.ReturnRecord
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		log.Error().Err(err).Uint("shop_id", shopID).Msg("list returns failed")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not load returns")
	}
	return list, nil
}

// GET /api/returns?status=&transaction_id=&date_from=&date_to=
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := returnsOf(c, s.ShopID)
		if err != nil {
			return err
		}

		out := make([]ReturnResponse, 0, len(list))
		for _, r := range list {
			unit := ""
			if r.Transaction != nil {
				if items, err := r.Transaction.Items(); err == nil {
					for _, it := range items {
						if it.ProductID == r.ProductID {
							unit = it.Unit
							break
						}
					}
				}
			}
			out = append(out, toResponse(r, unit))
		}
		return c.JSON(out)
	}
}

// PATCH /api/returns/:id/status
func UpdateStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateStatusRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		var rec models.ReturnRecord
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			err := tx.First(&rec, "id = ? AND shop_id = ?", id, s.ShopID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "return not found")
			}
			if err != nil {
				return err
			}
			if err := Transition(rec.Status, body.Status); err != nil {
				return statusOf(err)
			}

			before := rec
			res := tx.Model(&models.ReturnRecord{}).
				Where("id = ? AND status = ?", rec.ID, models.ReturnPending).
				Update("status", body.Status)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return statusOf(ErrStatusFinal)
			}
			rec.Status = body.Status

			return audit.WriteLog(tx, audit.LogOptions{
				Session:     s,
				EntityType:  audit.EntityReturn,
				EntityID:    rec.ID,
				Action:      models.LogActionUpdate,
				Description: fmt.Sprintf("Return of %s marked %s", rec.ProductName, rec.Status),
				Before:      before,
				After:       rec,
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			log.Error().Err(err).Uint("return_id", id).Msg("update return status failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update return")
		}
		return c.JSON(toResponse(rec, ""))
	}
}

// GET /api/returns/export
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		list, err := returnsOf(c, s.ShopID)
		if err != nil {
			return err
		}
		sheet, err := export.Returns(list)
		return export.SendSheet(c, "returns", sheet, err)
	}
}
