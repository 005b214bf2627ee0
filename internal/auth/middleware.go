package auth

import (
	"errors"
	"strings"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrProfileGone = errors.New("profile is no longer active")

// ProfileLookup loads the current state of a token's profile.
type ProfileLookup func(userID, shopID uint) (*models.User, error)

// GormProfileLookup reads the profile and its custom role from db.
func GormProfileLookup(db *gorm.DB) ProfileLookup {
	return func(userID, shopID uint) (*models.User, error) {
		var u models.User
		err := db.Preload("CustomRole").
			Where("id = ? AND shop_id = ?", userID, shopID).
			First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileGone
		}
		if err != nil {
			return nil, err
		}
		if !u.Active {
			return nil, ErrProfileGone
		}
		return &u, nil
	}
}

// Refresh replaces the role and permissions carried by the token with
// those of the stored profile.
func Refresh(s Session, u *models.User) Session {
	s.Name = u.Name
	s.Role = u.Role
	s.Permissions = nil
	if u.CustomRole != nil {
		s.Permissions = u.CustomRole.PermissionList()
	}
	return s
}

// JWTMiddleware authenticates the bearer token. With a non-nil lookup the
// session follows the stored profile, so removed staff and edited roles
// take effect on the next request.
func JWTMiddleware(cfg *config.Config, lookup ProfileLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		s := claims.Session()
		if lookup != nil {
			u, err := lookup(s.UserID, s.ShopID)
			if errors.Is(err, ErrProfileGone) {
				return fiber.NewError(fiber.StatusUnauthorized, err.Error())
			}
			if err != nil {
				log.Error().Err(err).Uint("user_id", s.UserID).Msg("profile lookup failed")
				return fiber.NewError(fiber.StatusInternalServerError, "could not verify session")
			}
			s = Refresh(s, u)
		}

		SetSession(c, s)
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := SessionFrom(c)
		if err != nil {
			return err
		}
		if !s.HasRole(allowedRoles...) {
			return fiber.NewError(fiber.StatusForbidden, "not allowed for role "+string(s.Role))
		}
		return c.Next()
	}
}

// RequirePermission lets staff with a matching custom role through.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := SessionFrom(c)
		if err != nil {
			return err
		}
		if !s.Can(perm) {
			return fiber.NewError(fiber.StatusForbidden, "missing permission "+perm)
		}
		return c.Next()
	}
}
