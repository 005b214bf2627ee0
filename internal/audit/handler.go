package audit

import (
	"errors"
	"time"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type LogResponse struct {
	ID          uint             `json:"id"`
	CreatedAt   string           `json:"created_at"`
	UserID      uint             `json:"user_id"`
	UserName    string           `json:"user_name"`
	EntityType  string           `json:"entity_type"`
	EntityID    uint             `json:"entity_id"`
	Action      models.LogAction `json:"action"`
	Description string           `json:"description"`
	Undoable    bool             `json:"undoable"`
	IsUndone    bool             `json:"is_undone"`
	UndoneBy    *uint            `json:"undone_by"`
	UndoneAt    *string          `json:"undone_at"`
}

func toResponse(l models.InventoryLog) LogResponse {
	var undoneAt *string
	if l.UndoneAt != nil {
		formatted := l.UndoneAt.Format(time.DateTime)
		undoneAt = &formatted
	}
	return LogResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Format(time.DateTime),
		UserID:      l.UserID,
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		Description: l.Description,
		Undoable:    CheckUndo(l) == nil,
		IsUndone:    l.IsUndone,
		UndoneBy:    l.UndoneBy,
		UndoneAt:    undoneAt,
	}
}

// GET /api/inventory-logs?entity_type=product&entity_id=1&user_id=2&limit=100
func ListLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.InventoryLog{}).Where("shop_id = ?", s.ShopID)
		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}
		if eid := c.QueryInt("entity_id"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if uid := c.QueryInt("user_id"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.InventoryLog
		if err := dbq.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list inventory logs")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(resp)
	}
}

// POST /api/inventory-logs/:id/undo
func UndoLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}

		err = UndoLog(s, id)
		switch {
		case errors.Is(err, ErrLogNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			log.Error().Err(err).Uint("log_id", id).Uint("shop_id", s.ShopID).Msg("undo failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not undo the change")
		}

		return c.JSON(fiber.Map{"message": "change undone"})
	}
}
