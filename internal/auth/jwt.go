package auth

import (
	"errors"
	"fmt"
	"time"

	"retailpos-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID      uint            `json:"user_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	ShopID      uint            `json:"shop_id"`
	Permissions []string        `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

func (c JWTCustomClaims) Session() Session {
	return Session{
		UserID:      c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        c.Role,
		ShopID:      c.ShopID,
		Permissions: c.Permissions,
	}
}

func GenerateToken(secret string, ttl time.Duration, user *models.User) (string, error) {
	var perms []string
	if user.CustomRole != nil {
		perms = user.CustomRole.PermissionList()
	}

	now := time.Now()
	claims := &JWTCustomClaims{
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		ShopID:      user.ShopID,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

var ErrInvalidToken = errors.New("invalid or expired token")

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
