package auth

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{
		ID:     7,
		ShopID: 3,
		Name:   "Asha",
		Email:  "asha@example.com",
		Role:   models.RoleStaff,
		CustomRole: &models.CustomRole{
			Permissions: "products.write, returns.write",
		},
	}

	token, err := GenerateToken(testSecret, time.Hour, user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	s := claims.Session()
	if s.UserID != 7 || s.ShopID != 3 || s.Role != models.RoleStaff {
		t.Errorf("unexpected session %+v", s)
	}
	if !s.Can(PermProductsWrite) || s.Can(PermPurchasesWrite) {
		t.Errorf("permissions not carried: %v", s.Permissions)
	}

	if _, err := ParseToken("another-secret-another-secret-xx", token); err == nil {
		t.Errorf("expected failure with wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	user := &models.User{ID: 1, ShopID: 1, Role: models.RoleOwner}
	token, err := GenerateToken(testSecret, -time.Minute, user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(testSecret, token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionCan(t *testing.T) {
	tests := []struct {
		name string
		s    Session
		perm string
		want bool
	}{
		{"owner", Session{Role: models.RoleOwner}, PermPurchasesWrite, true},
		{"manager", Session{Role: models.RoleManager}, PermReportsRead, true},
		{"cashier billing", Session{Role: models.RoleCashier}, PermBilling, true},
		{"cashier products", Session{Role: models.RoleCashier}, PermProductsWrite, false},
		{"staff without role", Session{Role: models.RoleStaff}, PermBilling, false},
		{"staff granted", Session{Role: models.RoleStaff, Permissions: []string{PermBilling}}, PermBilling, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Can(tt.perm); got != tt.want {
				t.Errorf("Can(%q) = %v, want %v", tt.perm, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Sharma General Store": "sharma-general-store",
		"  A&B  Mart!! ":       "a-b-mart",
		"***":                  "shop",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func newTestApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New()
	app.Use(JWTMiddleware(cfg, nil))
	app.Get("/owner-only", RequireRole(models.RoleOwner), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/billing", RequirePermission(PermBilling), func(c *fiber.Ctx) error {
		s, err := SessionFrom(c)
		if err != nil {
			return err
		}
		return c.SendString(string(s.Role))
	})
	app.Get("/check", CheckRoleHandler())
	return app, cfg
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	token, err := GenerateToken(testSecret, time.Hour, &models.User{ID: 1, ShopID: 1, Role: role})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "Bearer " + token
}

func TestMiddlewareChain(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
		body   string
	}{
		{"no header", "/owner-only", "", fiber.StatusUnauthorized, ""},
		{"bad scheme", "/owner-only", "Token abc", fiber.StatusUnauthorized, ""},
		{"owner allowed", "/owner-only", bearer(t, models.RoleOwner), fiber.StatusOK, "ok"},
		{"cashier forbidden", "/owner-only", bearer(t, models.RoleCashier), fiber.StatusForbidden, ""},
		{"cashier can bill", "/billing", bearer(t, models.RoleCashier), fiber.StatusOK, "cashier"},
		{"staff cannot bill", "/billing", bearer(t, models.RoleStaff), fiber.StatusForbidden, ""},
		{"check role match", "/check?role=manager", bearer(t, models.RoleManager), fiber.StatusOK, `"allowed":true`},
		{"check role mismatch", "/check?role=owner", bearer(t, models.RoleManager), fiber.StatusOK, `"allowed":false`},
		{"check role invalid", "/check?role=admin", bearer(t, models.RoleManager), fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.body != "" {
				b, _ := io.ReadAll(resp.Body)
				if !strings.Contains(string(b), tt.body) {
					t.Errorf("body %q does not contain %q", b, tt.body)
				}
			}
		})
	}
}

func TestMiddlewareFollowsStoredProfile(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	role := &models.CustomRole{ID: 3, ShopID: 1, Permissions: "billing,returns.write"}
	staff := &models.User{ID: 1, ShopID: 1, Role: models.RoleStaff, CustomRole: role, Active: true}

	token, err := GenerateToken(testSecret, time.Hour, staff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	stored := *staff
	gone := false
	lookup := func(userID, shopID uint) (*models.User, error) {
		if gone {
			return nil, ErrProfileGone
		}
		u := stored
		return &u, nil
	}

	app := fiber.New()
	app.Use(JWTMiddleware(cfg, lookup))
	app.Get("/billing", RequirePermission(PermBilling), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	status := func() int {
		req := httptest.NewRequest("GET", "/billing", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	if got := status(); got != fiber.StatusOK {
		t.Fatalf("before role edit = %d, want 200", got)
	}

	stored.CustomRole = &models.CustomRole{ID: 3, ShopID: 1, Permissions: "returns.write"}
	if got := status(); got != fiber.StatusForbidden {
		t.Errorf("after billing was removed from the role = %d, want 403", got)
	}

	gone = true
	if got := status(); got != fiber.StatusUnauthorized {
		t.Errorf("after profile deletion = %d, want 401", got)
	}
}
