package shop

import (
	"errors"
	"strings"
	"time"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateStaffRequest struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=8"`
	Role         models.UserRole `json:"role" validate:"required"`
	CustomRoleID *uint           `json:"custom_role_id"`
}

type UpdateStaffRequest struct {
	Name         *string          `json:"name"`
	Password     *string          `json:"password" validate:"omitempty,min=8"`
	Role         *models.UserRole `json:"role"`
	CustomRoleID *uint            `json:"custom_role_id"`
	Active       *bool            `json:"active"`
}

type StaffResponse struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Active     bool            `json:"active"`
	CustomRole *RoleResponse   `json:"custom_role,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toStaffResponse(u models.User) StaffResponse {
	r := StaffResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
	if u.CustomRole != nil {
		cr := toRoleResponse(*u.CustomRole, 0)
		r.CustomRole = &cr
	}
	return r
}

// checkAssignment enforces that owners are never created here and that
// only staff profiles carry a custom role.
func checkAssignment(role models.UserRole, customRoleID *uint) error {
	if !role.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "role must be one of manager, cashier, staff")
	}
	if role == models.RoleOwner {
		return fiber.NewError(fiber.StatusForbidden, "a shop has exactly one owner")
	}
	if role == models.RoleStaff && customRoleID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "staff profiles need a custom_role_id")
	}
	if role != models.RoleStaff && customRoleID != nil {
		return fiber.NewError(fiber.StatusBadRequest, "only staff profiles take a custom role")
	}
	return nil
}

func findStaff(shopID, id uint) (models.User, error) {
	var u models.User
	err := database.DB.Preload("CustomRole").First(&u, "id = ? AND shop_id = ?", id, shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return u, fiber.NewError(fiber.StatusNotFound, "profile not found")
	}
	if err != nil {
		return u, fiber.NewError(fiber.StatusInternalServerError, "could not load profile")
	}
	return u, nil
}

// GET /api/staff
func ListStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		q := database.DB.Preload("CustomRole").Where("shop_id = ?", s.ShopID)
		if role := c.Query("role"); role != "" {
			q = q.Where("role = ?", role)
		}
		var users []models.User
		if err := q.Order("name ASC").Find(&users).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Msg("list staff failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not load staff")
		}

		out := make([]StaffResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toStaffResponse(u))
		}
		return c.JSON(out)
	}
}

// POST /api/staff
func CreateStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var body CreateStaffRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := checkAssignment(body.Role, body.CustomRoleID); err != nil {
			return err
		}

		var count int64
		if err := database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check email")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}

		user := models.User{
			ShopID:       s.ShopID,
			Name:         strings.TrimSpace(body.Name),
			Email:        body.Email,
			Role:         body.Role,
			CustomRoleID: body.CustomRoleID,
			Active:       true,
		}
		if body.CustomRoleID != nil {
			role, err := findRole(database.DB, s.ShopID, *body.CustomRoleID)
			if err != nil {
				return err
			}
			user.CustomRole = &role
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}
		user.PasswordHash = string(hash)

		if err := database.DB.Omit("CustomRole").Create(&user).Error; err != nil {
			log.Error().Err(err).Uint("shop_id", s.ShopID).Str("email", user.Email).Msg("create staff failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not create profile")
		}
		return c.Status(fiber.StatusCreated).JSON(toStaffResponse(user))
	}
}

// PUT /api/staff/:id
func UpdateStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateStaffRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		user, err := findStaff(s.ShopID, id)
		if err != nil {
			return err
		}
		if user.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusForbidden, "the owner profile cannot be changed here")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			user.Name = name
		}

		role, customRoleID := user.Role, user.CustomRoleID
		if body.Role != nil {
			role = *body.Role
			if role != models.RoleStaff {
				customRoleID = nil
			}
		}
		if body.CustomRoleID != nil {
			customRoleID = body.CustomRoleID
		}
		if err := checkAssignment(role, customRoleID); err != nil {
			return err
		}
		user.Role, user.CustomRoleID, user.CustomRole = role, customRoleID, nil
		if customRoleID != nil {
			cr, err := findRole(database.DB, s.ShopID, *customRoleID)
			if err != nil {
				return err
			}
			user.CustomRole = &cr
		}

		if body.Active != nil {
			user.Active = *body.Active
		}
		if body.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
			}
			user.PasswordHash = string(hash)
		}

		if err := database.DB.Omit("CustomRole", "Shop").Save(&user).Error; err != nil {
			log.Error().Err(err).Uint("user_id", id).Msg("update staff failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not update profile")
		}
		return c.JSON(toStaffResponse(user))
	}
}

// DELETE /api/staff/:id
func DeleteStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		if id == s.UserID {
			return fiber.NewError(fiber.StatusConflict, "you cannot delete your own profile")
		}

		user, err := findStaff(s.ShopID, id)
		if err != nil {
			return err
		}
		if user.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusForbidden, "the owner profile cannot be deleted")
		}

		if err := database.DB.Delete(&models.User{}, user.ID).Error; err != nil {
			log.Error().Err(err).Uint("user_id", id).Msg("delete staff failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete profile")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
