package shop

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=60"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

type RoleResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Staff       int64    `json:"staff"`
}

// CheckPermissions drops duplicates and rejects names no role may grant.
func CheckPermissions(perms []string) ([]string, error) {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		if !slices.Contains(auth.AllPermissions, p) {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown permission %q", p))
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "at least one permission is required")
	}
	return out, nil
}

func (r RoleRequest) apply(role *models.CustomRole) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
	}
	perms, err := CheckPermissions(r.Permissions)
	if err != nil {
		return err
	}
	role.Name = name
	role.Permissions = models.JoinPermissions(perms)
	return nil
}

func toRoleResponse(r models.CustomRole, staff int64) RoleResponse {
	perms := r.PermissionList()
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{ID: r.ID, Name: r.Name, Permissions: perms, Staff: staff}
}

func findRole(db *gorm.DB, shopID, id uint) (models.CustomRole, error) {
	var r models.CustomRole
	err := db.First(&r, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, fiber.NewError(fiber.StatusNotFound, "role not found")
	}
	if err != nil {
		return r, fiber.NewError(fiber.StatusInternalServerError, "could not load role")
	}
	return r, nil
}

// GET /api/roles/permissions
func PermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(auth.AllPermissions)
	}
}

// GET /api/roles
func ListRolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var roles []models.CustomRole
		if err := database.DB.Where("shop_id = ?", s.ShopID).Order("name ASC").Find(&roles).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("list roles failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not load roles")
		}

		type usage struct {
			CustomRoleID uint
			Count        int64
		}
		var counts []usage
		if err := database.DB.Model(&models.User{}).
			Select("custom_role_id, COUNT(*) AS count").
			Where("shop_id = ? AND custom_role_id IS NOT NULL", s.ShopID).
			Group("custom_role_id").
			Scan(&counts).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("count role staff failed")
		}
		byRole := make(map[uint]int64, len(counts))
		for _, u := range counts {
			byRole[u.CustomRoleID] = u.Count
		}

		out := make([]RoleResponse, 0, len(roles))
		for _, r := range roles {
			out = append(out, toRoleResponse(r, byRole[r.ID]))
		}
		return c.JSON(out)
	}
}

// POST /api/roles
func CreateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body RoleRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		role := models.CustomRole{ShopID: s.ShopID}
		if err := body.apply(&role); err != nil {
			return err
		}
		if err := database.DB.Create(&role).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("create role failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not create role")
		}
		return c.Status(fiber.StatusCreated).JSON(toRoleResponse(role, 0))
	}
}

// PUT /api/roles/:id
func UpdateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body RoleRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		role, err := findRole(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}
		if err := body.apply(&role); err != nil {
			return err
		}
		if err := database.DB.Save(&role).Error; err != nil {
			log.Error().Err(err).Uint("role_id", id).Msg("update role failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update role")
		}
		// staff pick up the new permissions at their next login
		return c.JSON(toRoleResponse(role, 0))
	}
}

// DELETE /api/roles/:id
func DeleteRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}

		role, err := findRole(database.DB, s.ShopID, id)
		if err != nil {
			return err
		}

		var assigned int64
		if err := database.DB.Model(&models.User{}).
			Where("shop_id = ? AND custom_role_id = ?", s.ShopID, role.ID).
			Count(&assigned).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check role usage")
		}
		if assigned > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("role is assigned to %d staff profiles", assigned))
		}

		if err := database.DB.Delete(&role).Error; err != nil {
			log.Error().Err(err).Uint("role_id", id).Msg("delete role failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete role")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
