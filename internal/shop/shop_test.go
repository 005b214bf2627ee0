package shop

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func code(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		raw, want string
		ok        bool
	}{
		{"gs", "GS", true},
		{" shop01 ", "SHOP01", true},
		{"x", "", false},
		{"TOO-LONG", "", false},
		{"ABCDEFGHIJK", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeTag(tt.raw)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestUpdateShopApply(t *testing.T) {
	name, tag, gst := " Green Store ", "gs", "27abcde1234f1z5"
	s := models.Shop{Name: "Old", InvoiceTag: "TXN", Address: "kept"}
	if err := (UpdateShopRequest{Name: &name, InvoiceTag: &tag, GSTNumber: &gst}).apply(&s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "Green Store" || s.InvoiceTag != "GS" || s.GSTNumber != "27ABCDE1234F1Z5" || s.Address != "kept" {
		t.Errorf("shop = %+v", s)
	}

	blank := "  "
	if err := (UpdateShopRequest{Name: &blank}).apply(&s); code(err) != fiber.StatusBadRequest {
		t.Errorf("blank name: %v", err)
	}
}

func TestCheckPermissions(t *testing.T) {
	got, err := CheckPermissions([]string{" returns.write", "billing", "returns.write", ""})
	if err != nil || len(got) != 2 || got[0] != auth.PermReturnsWrite || got[1] != auth.PermBilling {
		t.Errorf("got %v, %v", got, err)
	}
	if _, err := CheckPermissions([]string{"billing", "shop.delete"}); code(err) != fiber.StatusBadRequest {
		t.Errorf("unknown permission accepted: %v", err)
	}
	if _, err := CheckPermissions([]string{" "}); code(err) != fiber.StatusBadRequest {
		t.Errorf("empty permission set accepted: %v", err)
	}
}

func TestRoleRequestApply(t *testing.T) {
	var r models.CustomRole
	err := RoleRequest{Name: " Stock keeper ", Permissions: []string{"inventory.write", "products.write"}}.apply(&r)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "Stock keeper" || r.Permissions != "inventory.write,products.write" {
		t.Errorf("role = %+v", r)
	}
	resp := toRoleResponse(r, 3)
	if len(resp.Permissions) != 2 || resp.Staff != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestCheckAssignment(t *testing.T) {
	id := uint(4)
	tests := []struct {
		name   string
		role   models.UserRole
		custom *uint
		want   int
	}{
		{"cashier", models.RoleCashier, nil, 0},
		{"manager", models.RoleManager, nil, 0},
		{"staff with role", models.RoleStaff, &id, 0},
		{"staff without role", models.RoleStaff, nil, fiber.StatusBadRequest},
		{"cashier with custom role", models.RoleCashier, &id, fiber.StatusBadRequest},
		{"second owner", models.RoleOwner, nil, fiber.StatusForbidden},
		{"unknown role", "admin", nil, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := code(checkAssignment(tt.role, tt.custom)); got != tt.want {
				t.Errorf("code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPermissionsHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/roles/permissions", PermissionsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/roles/permissions", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	var perms []string
	if err := json.Unmarshal(body, &perms); err != nil || len(perms) != len(auth.AllPermissions) {
		t.Errorf("permissions = %s", body)
	}
}
