package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}

	t.Setenv("JWT_SECRET", "short")
	if _, err := Load(); !errors.Is(err, ErrShortJWTSecret) {
		t.Fatalf("expected ErrShortJWTSecret, got %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 32))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("LOW_STOCK_THRESHOLD", "2.5")
	t.Setenv("INVOICE_ROWS_PER_PAGE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Errorf("JWTTTL = %v", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LowStockThreshold != 2.5 {
		t.Errorf("LowStockThreshold = %v", cfg.LowStockThreshold)
	}
	if cfg.InvoiceRowsPerPage != 25 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.InvoiceRowsPerPage)
	}
}
