package auth

import (
	"slices"

	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ctxSessionKey = "session"

const (
	PermBilling        = "billing"
	PermProductsWrite  = "products.write"
	PermInventoryWrite = "inventory.write"
	PermReturnsWrite   = "returns.write"
	PermSuppliersWrite = "suppliers.write"
	PermPurchasesWrite = "purchases.write"
	PermReportsRead    = "reports.read"
)

// AllPermissions is what a custom role may grant.
var AllPermissions = []string{
	PermBilling,
	PermProductsWrite,
	PermInventoryWrite,
	PermReturnsWrite,
	PermSuppliersWrite,
	PermPurchasesWrite,
	PermReportsRead,
}

var cashierPermissions = []string{PermBilling, PermReturnsWrite}

// Session is the authenticated caller, resolved once per request by
// JWTMiddleware. Every shop scoped query uses Session.ShopID.
type Session struct {
	UserID      uint            `json:"user_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	ShopID      uint            `json:"shop_id"`
	Permissions []string        `json:"permissions,omitempty"`
}

func (s Session) HasRole(roles ...models.UserRole) bool {
	return slices.Contains(roles, s.Role)
}

// Can reports whether the caller holds perm. Owners and managers hold all.
func (s Session) Can(perm string) bool {
	switch s.Role {
	case models.RoleOwner, models.RoleManager:
		return true
	case models.RoleCashier:
		return slices.Contains(cashierPermissions, perm)
	case models.RoleStaff:
		return slices.Contains(s.Permissions, perm)
	}
	return false
}

func SetSession(c *fiber.Ctx, s Session) {
	c.Locals(ctxSessionKey, s)
}

func SessionFrom(c *fiber.Ctx) (Session, error) {
	s, ok := c.Locals(ctxSessionKey).(Session)
	if !ok || s.UserID == 0 || s.ShopID == 0 {
		return Session{}, fiber.NewError(fiber.StatusUnauthorized, "session not found")
	}
	return s, nil
}
