package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleManager UserRole = "manager"
	RoleCashier UserRole = "cashier"
	RoleStaff   UserRole = "staff"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleCashier, RoleStaff:
		return true
	}
	return false
}

// User is a shop profile. Every profile belongs to exactly one shop.
type User struct {
	ID           uint `gorm:"primaryKey"`
	ShopID       uint `gorm:"index;not null"`
	Shop         *Shop
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CustomRoleID *uint
	CustomRole   *CustomRole
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CustomRole is a named permission set assigned to staff profiles.
type CustomRole struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ShopID      uint      `gorm:"index;not null" json:"shop_id"`
	Name        string    `gorm:"size:60;not null" json:"name"`
	Permissions string    `gorm:"size:1000" json:"-"` // comma separated, e.g. "products.write,returns.write"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r CustomRole) PermissionList() []string {
	if strings.TrimSpace(r.Permissions) == "" {
		return nil
	}
	parts := strings.Split(r.Permissions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinPermissions(perms []string) string {
	clean := make([]string, 0, len(perms))
	for _, p := range perms {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ",")
}
