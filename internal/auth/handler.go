package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterOwnerRequest struct {
	ShopName    string `json:"shop_name" validate:"required"`
	ShopAddress string `json:"shop_address"`
	ShopPhone   string `json:"shop_phone"`
	GSTNumber   string `json:"gst_number"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a shop name into its public login path segment.
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "shop"
	}
	return s
}

func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&models.Shop{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// POST /api/auth/register-owner
func RegisterOwnerHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterOwnerRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		var shop models.Shop
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleOwner,
			Active:       true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			slug, err := uniqueSlug(tx, body.ShopName)
			if err != nil {
				return err
			}
			shop = models.Shop{
				Name:       strings.TrimSpace(body.ShopName),
				Slug:       slug,
				Address:    strings.TrimSpace(body.ShopAddress),
				Phone:      strings.TrimSpace(body.ShopPhone),
				GSTNumber:  strings.ToUpper(strings.TrimSpace(body.GSTNumber)),
				InvoiceTag: "TXN",
			}
			if err := tx.Create(&shop).Error; err != nil {
				return err
			}
			user.ShopID = shop.ID
			return tx.Create(&user).Error
		})
		if err != nil {
			log.Error().Err(err).Str("email", body.Email).Msg("owner registration failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not create shop")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  userResponse(&user),
			"shop":  shop,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return login(c, cfg, "")
	}
}

// POST /api/shops/:slug/login
func ShopLoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.ToLower(strings.TrimSpace(c.Params("slug")))
		if slug == "" {
			return fiber.NewError(fiber.StatusBadRequest, "shop is required")
		}
		return login(c, cfg, slug)
	}
}

func login(c *fiber.Ctx, cfg *config.Config, slug string) error {
	var body LoginRequest
	if err := request.Parse(c, &body); err != nil {
		return err
	}
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))

	var user models.User
	if err := database.DB.Preload("Shop").Preload("CustomRole").
		Where("email = ?", body.Email).First(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}
	if !user.Active {
		return fiber.NewError(fiber.StatusForbidden, "profile is deactivated")
	}
	if slug != "" && (user.Shop == nil || user.Shop.Slug != slug) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, &user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userResponse(&user),
	})
}

func userResponse(u *models.User) fiber.Map {
	m := fiber.Map{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"role":    u.Role,
		"shop_id": u.ShopID,
	}
	if u.CustomRole != nil {
		m["custom_role"] = fiber.Map{
			"id":          u.CustomRole.ID,
			"name":        u.CustomRole.Name,
			"permissions": u.CustomRole.PermissionList(),
		}
	}
	return m
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := SessionFrom(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Shop").Preload("CustomRole").
			First(&user, "id = ? AND shop_id = ?", s.UserID, s.ShopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "profile not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load profile")
		}

		resp := userResponse(&user)
		if user.Shop != nil {
			resp["shop"] = user.Shop
		}
		return c.JSON(resp)
	}
}

// GET /api/auth/check-role?role=manager
func CheckRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := SessionFrom(c)
		if err != nil {
			return err
		}
		role := models.UserRole(strings.ToLower(c.Query("role")))
		if !role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "role must be one of owner, manager, cashier, staff")
		}
		return c.JSON(fiber.Map{
			"role":    role,
			"allowed": s.HasRole(role),
		})
	}
}
