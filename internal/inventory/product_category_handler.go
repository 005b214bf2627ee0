package inventory

import (
	"strings"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/units"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	Name     string `json:"name"`
	Products int64  `json:"products"`
}

type RenameCategoryRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type UnitResponse struct {
	Unit       units.Unit `json:"unit"`
	Continuous bool       `json:"continuous"`
	Step       float64    `json:"step"`
}

// GET /api/products/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var res []CategoryResponse
		err = database.DB.Model(&models.Product{}).
			Select("category AS name, COUNT(*) AS products").
			Where("shop_id = ? AND category <> ''", s.ShopID).
			Group("category").
			Order("category asc").
			Scan(&res).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list categories")
		}
		if res == nil {
			res = []CategoryResponse{}
		}
		return c.JSON(res)
	}
}

// PUT /api/products/categories
func RenameCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var body RenameCategoryRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		from, to := strings.TrimSpace(body.From), strings.TrimSpace(body.To)
		if from == "" || to == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category names must not be empty")
		}

		res := database.DB.Model(&models.Product{}).
			Where("shop_id = ? AND category = ?", s.ShopID, from).
			Update("category", to)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not rename category")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}

		return c.JSON(CategoryResponse{Name: to, Products: res.RowsAffected})
	}
}

// GET /api/units
func ListUnitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := units.All()
		res := make([]UnitResponse, 0, len(all))
		for _, u := range all {
			res = append(res, UnitResponse{Unit: u, Continuous: units.IsContinuous(u), Step: units.Step(u)})
		}
		return c.JSON(res)
	}
}
