// Package notification serves the shop's notification feed. Notifications
// are written by checkout, returns and purchase transfers.
package notification

import (
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// visible limits a query to notifications addressed to the shop or to the
// calling profile.
func visible(db *gorm.DB, s auth.Session) *gorm.DB {
	return db.Where("shop_id = ? AND (user_id IS NULL OR user_id = ?)", s.ShopID, s.UserID)
}

// GET /api/notifications?unread=true&type=low_stock&limit=50
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			limit = 50
		}

		q := visible(database.DB.Model(&models.Notification{}), s)
		if c.QueryBool("unread", false) {
			q = q.Where("read = ?", false)
		}
		if t := c.Query("type"); t != "" {
			q = q.Where("type = ?", t)
		}

		var list []models.Notification
		if err := q.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("list notifications failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not load notifications")
		}

		var unread int64
		if err := visible(database.DB.Model(&models.Notification{}), s).
			Where("read = ?", false).Count(&unread).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("count notifications failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not load notifications")
		}

		return c.JSON(ListResponse{Notifications: list, Unread: unread})
	}
}

// PATCH /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}

		res := visible(database.DB.Model(&models.Notification{}), s).
			Where("id = ?", id).
			Update("read", true)
		if res.Error != nil {
			log.Error().Err(res.Error).Uint("notification_id", id).Msg("mark notification read failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update notification")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/notifications/read-all
func MarkAllReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		res := visible(database.DB.Model(&models.Notification{}), s).
			Where("read = ?", false).
			Update("read", true)
		if res.Error != nil {
			log.Error().Err(res.Error).Uint("shop_id", s.ShopID).Msg("mark all notifications read failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update notifications")
		}
		return c.JSON(fiber.Map{"updated": res.RowsAffected})
	}
}
