package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type fakeFinder map[uint]models.Product

func (f fakeFinder) FindProduct(_ context.Context, _ uint, id uint) (*models.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (f fakeFinder) FindByBarcode(_ context.Context, _ uint, code string) (*models.Product, error) {
	for _, p := range f {
		if p.DisplayBarcode() == code {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (f fakeFinder) Stock(id uint) (float64, error) {
	p, ok := f[id]
	if !ok {
		return 0, ErrProductNotFound
	}
	return p.Stock, nil
}

func newBillApp(t *testing.T, finder fakeFinder, session auth.Session) (*fiber.App, *fakeStore) {
	t.Helper()

	store := &fakeStore{}
	h := &Handlers{
		Bills:    NewBillRegistry(func(uint) StockLookup { return finder }),
		Products: finder,
		Checkout: NewCheckout(store, &fakeLedger{}, nil),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		auth.SetSession(c, session)
		return c.Next()
	})
	app.Get("/bill", h.Get())
	app.Post("/bill/items", h.AddItem())
	app.Patch("/bill/items/:index", h.UpdateItem())
	app.Post("/bill/items/:index/increment", h.IncrementItem())
	app.Post("/bill/items/:index/decrement", h.DecrementItem())
	app.Delete("/bill/items/:index", h.RemoveItem())
	app.Delete("/bill", h.Clear())
	app.Post("/bill/checkout", h.CheckoutBill())
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func decodeView(t *testing.T, b []byte) BillView {
	t.Helper()
	var v BillView
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func TestBillHandlers(t *testing.T) {
	sku := "SOAP-01"
	finder := fakeFinder{
		1: {ID: 1, Name: "Soap", Unit: "piece", Price: decimal.NewFromInt(35), Stock: 2, SKU: &sku},
		2: {ID: 2, Name: "Rice", Unit: "kg", Price: decimal.NewFromInt(60), Stock: 5},
	}
	app, store := newBillApp(t, finder, auth.Session{UserID: 1, ShopID: 1, Role: models.RoleCashier, Name: "Ravi"})

	status, body := call(t, app, "POST", "/bill/items", `{"barcode":"SOAP-01"}`)
	if status != fiber.StatusOK {
		t.Fatalf("add by barcode: %d %s", status, body)
	}
	v := decodeView(t, body)
	if v.Count != 1 || v.Items[0].Display != "1 piece" || len(v.Messages) != 1 {
		t.Errorf("unexpected view %+v", v)
	}

	status, body = call(t, app, "POST", "/bill/items", `{"product_id":2,"quantity":1.25}`)
	if status != fiber.StatusOK {
		t.Fatalf("add rice: %d %s", status, body)
	}

	status, _ = call(t, app, "POST", "/bill/items", `{"product_id":1,"quantity":5}`)
	if status != fiber.StatusConflict {
		t.Errorf("over stock add = %d, want 409", status)
	}

	status, _ = call(t, app, "POST", "/bill/items", `{"product_id":99}`)
	if status != fiber.StatusNotFound {
		t.Errorf("unknown product = %d, want 404", status)
	}

	status, body = call(t, app, "POST", "/bill/items/1/increment", "")
	if status != fiber.StatusOK {
		t.Fatalf("increment: %d %s", status, body)
	}
	v = decodeView(t, body)
	if v.Items[1].Quantity != 1.35 || v.Items[1].Display != "1.35 kg" {
		t.Errorf("rice after increment = %+v", v.Items[1])
	}

	status, _ = call(t, app, "PATCH", "/bill/items/0", `{"quantity":1.5}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("fractional soap = %d, want 400", status)
	}

	status, _ = call(t, app, "DELETE", "/bill", "")
	if status != fiber.StatusPreconditionRequired {
		t.Errorf("unconfirmed clear = %d, want 428", status)
	}

	status, body = call(t, app, "GET", "/bill", "")
	v = decodeView(t, body)
	if status != fiber.StatusOK || v.Count != 2 {
		t.Fatalf("bill after declined clear: %d %+v", status, v)
	}
	// 35 + 1.35 * 60
	if !v.Total.Equal(decimal.RequireFromString("116")) {
		t.Errorf("total = %s, want 116", v.Total)
	}

	status, body = call(t, app, "POST", "/bill/checkout", `{"payment_method":"card","reference":"AUTH-77"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("checkout: %d %s", status, body)
	}
	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Transaction == nil || len(receipt.Items) != 2 || len(store.inserted) != 1 {
		t.Errorf("unexpected receipt %s", body)
	}

	status, body = call(t, app, "GET", "/bill", "")
	if v = decodeView(t, body); status != fiber.StatusOK || v.Count != 0 {
		t.Errorf("bill should be empty after checkout, got %+v", v)
	}

	status, _ = call(t, app, "POST", "/bill/checkout", `{"payment_method":"card"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("empty checkout = %d, want 400", status)
	}

	status, _ = call(t, app, "POST", "/bill/checkout", `{"payment_method":"cheque"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("bad payment method = %d, want 400", status)
	}
}

func TestBillsAreIsolatedPerProfile(t *testing.T) {
	finder := fakeFinder{1: {ID: 1, Name: "Soap", Unit: "piece", Price: decimal.NewFromInt(35), Stock: 9}}
	reg := NewBillRegistry(func(uint) StockLookup { return finder })
	h := &Handlers{Bills: reg, Products: finder}

	for _, uid := range []uint{1, 2} {
		app := fiber.New()
		session := auth.Session{UserID: uid, ShopID: 1, Role: models.RoleCashier}
		app.Use(func(c *fiber.Ctx) error { auth.SetSession(c, session); return c.Next() })
		app.Post("/bill/items", h.AddItem())

		for i := uint(0); i < uid; i++ {
			if status, body := call(t, app, "POST", "/bill/items", `{"product_id":1}`); status != fiber.StatusOK {
				t.Fatalf("add: %d %s", status, body)
			}
		}
	}

	if reg.Len() != 2 {
		t.Errorf("expected two bills, got %d", reg.Len())
	}
}
