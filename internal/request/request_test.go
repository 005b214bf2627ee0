package request

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

type sample struct {
	Name   string  `json:"name" validate:"required"`
	Method string  `json:"method" validate:"required,oneof=cash card upi"`
	Qty    float64 `json:"qty" validate:"gt=0"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Name: "a", Method: "upi", Qty: 1}, ""},
		{"missing name", sample{Method: "cash", Qty: 1}, "Name is required"},
		{"bad method", sample{Name: "a", Method: "cheque", Qty: 1}, "Method must be one of [cash card upi]"},
		{"zero qty", sample{Name: "a", Method: "card"}, "Qty must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *fiber.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *fiber.Error, got %v", err)
			}
			if fe.Code != fiber.StatusBadRequest {
				t.Errorf("code = %d", fe.Code)
			}
			if !strings.Contains(fe.Message, tt.wantErr) {
				t.Errorf("message %q does not contain %q", fe.Message, tt.wantErr)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		from, to, err := DateRange(c)
		if err != nil {
			return err
		}
		out := ""
		if from != nil {
			out += from.Format(time.RFC3339)
		}
		out += "|"
		if to != nil {
			out += to.Format(time.RFC3339)
		}
		return c.SendString(out)
	})

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{"", 200, "|"},
		{"?date_from=2026-10-01", 200, "2026-10-01T00:00:00Z|"},
		{"?date_from=2026-10-01&date_to=2026-10-18", 200, "2026-10-01T00:00:00Z|2026-10-18T23:59:59Z"},
		{"?date_to=18-10-2026", 400, ""},
		{"?date_from=2026-10-18&date_to=2026-10-01", 400, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status == 200 {
				b, _ := io.ReadAll(resp.Body)
				if string(b) != tt.body {
					t.Errorf("body = %q, want %q", b, tt.body)
				}
			}
		})
	}
}
