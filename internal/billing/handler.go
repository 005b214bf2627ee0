package billing

import (
	"context"
	"errors"
	"strings"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/request"
	"retailpos-backend/internal/units"
	"retailpos-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductFinder interface {
	FindProduct(ctx context.Context, shopID, id uint) (*models.Product, error)
	FindByBarcode(ctx context.Context, shopID uint, code string) (*models.Product, error)
}

// Handlers serves the open bill of the calling profile under /api/bill.
type Handlers struct {
	Bills    *workspace.Registry[Bill]
	Products ProductFinder
	Checkout *Checkout
	// CodePrefix returns the transaction code prefix of a shop; TXN when nil.
	CodePrefix func(ctx context.Context, shopID uint) string
}

// NewBillRegistry keeps one bill per profile, reading live stock of its shop.
func NewBillRegistry(lookup func(shopID uint) StockLookup) *workspace.Registry[Bill] {
	return workspace.NewRegistry(func(k workspace.Key) *Bill {
		return NewBill(lookup(k.ShopID), nil)
	})
}

type AddItemRequest struct {
	ProductID uint     `json:"product_id"`
	Barcode   string   `json:"barcode"`
	Quantity  *float64 `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

type LineView struct {
	Index     int             `json:"index"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Unit      units.Unit      `json:"unit"`
	Quantity  float64         `json:"quantity"`
	Display   string          `json:"display"`
	Step      float64         `json:"step"`
	Total     decimal.Decimal `json:"total"`
}

type BillView struct {
	Items    []LineView      `json:"items"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Messages []Notice        `json:"messages"`
}

func viewOf(b *Bill, notices Notices) BillView {
	lines := b.Lines()
	items := make([]LineView, 0, len(lines))
	for i, l := range lines {
		items = append(items, LineView{
			Index:     i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Unit:      l.Unit,
			Quantity:  l.Quantity,
			Display:   l.Display(),
			Step:      units.Step(l.Unit),
			Total:     l.Total(),
		})
	}
	if notices == nil {
		notices = Notices{}
	}
	return BillView{Items: items, Count: len(items), Total: b.TotalAmount(), Messages: notices}
}

// statusOf maps bill errors onto HTTP errors. The message shown is the
// warning the bill emitted when there is one.
func statusOf(err error, notices Notices) error {
	msg := err.Error()
	for i := len(notices) - 1; i >= 0; i-- {
		if notices[i].Level == LevelWarning {
			msg = notices[i].Message
			break
		}
	}

	switch {
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrExceedsStock):
		return fiber.NewError(fiber.StatusConflict, msg)
	case errors.Is(err, ErrFractional), errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrEmptyBill), errors.Is(err, ErrInvalidPayment),
		errors.Is(err, ErrInsufficientTender):
		return fiber.NewError(fiber.StatusBadRequest, msg)
	case errors.Is(err, ErrLineNotFound), errors.Is(err, ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, msg)
	case errors.Is(err, ErrNotConfirmed):
		return fiber.NewError(fiber.StatusPreconditionRequired, "confirm=true is required to clear the bill")
	case errors.Is(err, ErrTransactionNotSaved):
		return fiber.NewError(fiber.StatusInternalServerError, "transaction could not be saved, the bill was kept")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "bill operation failed")
}

// mutate runs fn on the caller's bill with a fresh notice collector.
func (h *Handlers) mutate(c *fiber.Ctx, fn func(b *Bill) error) error {
	s, err := auth.SessionFrom(c)
	if err != nil {
		return err
	}

	var view BillView
	key := workspace.Key{ShopID: s.ShopID, UserID: s.UserID}
	err = h.Bills.With(key, func(b *Bill) error {
		var notices Notices
		b.SetNotifier(&notices)
		defer b.SetNotifier(nil)

		if err := fn(b); err != nil {
			return statusOf(err, notices)
		}
		view = viewOf(b, notices)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func lineIndex(c *fiber.Ctx) (int, error) {
	i, err := c.ParamsInt("index", -1)
	if err != nil || i < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid line index")
	}
	return i, nil
}

// GET /api/bill
func (h *Handlers) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.mutate(c, func(*Bill) error { return nil })
	}
}

// POST /api/bill/items
func (h *Handlers) AddItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var body AddItemRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		var p *models.Product
		switch {
		case body.ProductID > 0:
			p, err = h.Products.FindProduct(ctx, s.ShopID, body.ProductID)
		case strings.TrimSpace(body.Barcode) != "":
			p, err = h.Products.FindByBarcode(ctx, s.ShopID, strings.TrimSpace(body.Barcode))
		default:
			return fiber.NewError(fiber.StatusBadRequest, "product_id or barcode is required")
		}
		if errors.Is(err, ErrProductNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load product")
		}

		qty := 1.0
		if body.Quantity != nil {
			qty = *body.Quantity
		}

		return h.mutate(c, func(b *Bill) error {
			return b.AddToBill(*p, qty)
		})
	}
}

// PATCH /api/bill/items/:index
func (h *Handlers) UpdateItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, err := lineIndex(c)
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}
		return h.mutate(c, func(b *Bill) error {
			return b.UpdateQuantity(i, *body.Quantity)
		})
	}
}

// POST /api/bill/items/:index/increment
func (h *Handlers) IncrementItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, err := lineIndex(c)
		if err != nil {
			return err
		}
		return h.mutate(c, func(b *Bill) error { return b.Increment(i) })
	}
}

// POST /api/bill/items/:index/decrement
func (h *Handlers) DecrementItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, err := lineIndex(c)
		if err != nil {
			return err
		}
		return h.mutate(c, func(b *Bill) error { return b.Decrement(i) })
	}
}

// DELETE /api/bill/items/:index
func (h *Handlers) RemoveItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, err := lineIndex(c)
		if err != nil {
			return err
		}
		return h.mutate(c, func(b *Bill) error { return b.RemoveItem(i) })
	}
}

// DELETE /api/bill?confirm=true
func (h *Handlers) Clear() fiber.Handler {
	return func(c *fiber.Ctx) error {
		confirmed := c.QueryBool("confirm", false)
		return h.mutate(c, func(b *Bill) error {
			return b.ClearBill(ConfirmFunc(func(string) bool { return confirmed }))
		})
	}
}

// POST /api/bill/checkout
func (h *Handlers) CheckoutBill() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		var body CheckoutRequest
		if err := request.Parse(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		prefix := ""
		if h.CodePrefix != nil {
			prefix = h.CodePrefix(ctx, s.ShopID)
		}

		var receipt *Receipt
		key := workspace.Key{ShopID: s.ShopID, UserID: s.UserID}
		err = h.Bills.With(key, func(b *Bill) error {
			r, err := h.Checkout.Run(ctx, s, prefix, b, body)
			if err != nil {
				return statusOf(err, nil)
			}
			receipt = r
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(receipt)
	}
}
