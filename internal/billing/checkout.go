package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyBill           = errors.New("bill is empty")
	ErrInvalidPayment      = errors.New("payment method must be cash, card or upi")
	ErrInsufficientTender  = errors.New("amount tendered is less than the bill total")
	ErrTransactionNotSaved = errors.New("transaction could not be saved")
)

// TransactionStore persists completed sales.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
}

// StockLedger mirrors the decrement_stock and increment_sales procedures.
type StockLedger interface {
	DecrementStock(ctx context.Context, productID uint, qty float64) error
	IncrementSales(ctx context.Context, productID uint, qty float64) error
}

// LowStockWatcher is told about every product whose stock went down.
type LowStockWatcher interface {
	CheckLowStock(ctx context.Context, shopID, productID uint) error
}

// FailureReporter is told once per sale whose stock bookkeeping failed.
type FailureReporter interface {
	ReportFailures(ctx context.Context, shopID uint, code string, failures []LineFailure) error
}

type CheckoutRequest struct {
	PaymentMethod  models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card upi"`
	AmountTendered *decimal.Decimal     `json:"amount_tendered"`
	Reference      string               `json:"reference"`
}

// LineFailure records a bill line whose stock bookkeeping failed after the
// transaction was saved. The sale stands; nothing is rolled back.
type LineFailure struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Step      string `json:"step"`
	Error     string `json:"error"`
}

type Receipt struct {
	Transaction *models.Transaction `json:"transaction"`
	Items       []models.BillItem   `json:"items"`
	Change      *decimal.Decimal    `json:"change,omitempty"`
	Failures    []LineFailure       `json:"failed_items"`
}

type Checkout struct {
	Store   TransactionStore
	Ledger  StockLedger
	Watcher LowStockWatcher // optional
	Alerts  FailureReporter // optional
	Now     func() time.Time
}

func NewCheckout(store TransactionStore, ledger StockLedger, watcher LowStockWatcher) *Checkout {
	return &Checkout{Store: store, Ledger: ledger, Watcher: watcher, Now: time.Now}
}

// NewTransactionCode builds codes like TXN-20261018-153045-9F2A.
func NewTransactionCode(prefix string, at time.Time) string {
	if prefix == "" {
		prefix = "TXN"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(prefix), at.Format("20060102-150405"), suffix)
}

// Run turns the bill into a transaction. The transaction is written first;
// stock and sales counters are then updated line by line, in bill order.
// A failing line is logged and reported in the receipt and the loop moves
// on. The bill is cleared only once the transaction is saved.
func (s *Checkout) Run(ctx context.Context, sess auth.Session, codePrefix string, bill *Bill, req CheckoutRequest) (*Receipt, error) {
	if bill.Len() == 0 {
		return nil, ErrEmptyBill
	}
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPayment
	}

	total := bill.TotalAmount()
	items := bill.Items()

	var details *models.PaymentDetails
	var change *decimal.Decimal
	switch req.PaymentMethod {
	case models.PaymentCash:
		if req.AmountTendered != nil {
			if req.AmountTendered.LessThan(total) {
				return nil, ErrInsufficientTender
			}
			ch := req.AmountTendered.Sub(total)
			change = &ch
			details = &models.PaymentDetails{AmountTendered: req.AmountTendered, Change: change}
		}
	default:
		if ref := strings.TrimSpace(req.Reference); ref != "" {
			details = &models.PaymentDetails{Reference: ref}
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	tx := &models.Transaction{
		Code:          NewTransactionCode(codePrefix, now()),
		ShopID:        sess.ShopID,
		CashierID:     sess.UserID,
		CashierName:   sess.Name,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
	}
	if err := tx.SetItems(items); err != nil {
		return nil, fmt.Errorf("encode bill items: %w", err)
	}
	if err := tx.SetPaymentDetails(details); err != nil {
		return nil, fmt.Errorf("encode payment details: %w", err)
	}

	if err := s.Store.InsertTransaction(ctx, tx); err != nil {
		log.Error().Err(err).Uint("shop_id", sess.ShopID).Uint("cashier_id", sess.UserID).
			Str("total", total.StringFixed(2)).Msg("checkout: transaction insert failed")
		return nil, fmt.Errorf("%w: %v", ErrTransactionNotSaved, err)
	}

	failures := make([]LineFailure, 0)
	for _, it := range items {
		if err := s.Ledger.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			failures = append(failures, s.fail(tx, it, "decrement_stock", err))
			continue
		}
		if err := s.Ledger.IncrementSales(ctx, it.ProductID, it.Quantity); err != nil {
			failures = append(failures, s.fail(tx, it, "increment_sales", err))
		}
		if s.Watcher != nil {
			if err := s.Watcher.CheckLowStock(ctx, sess.ShopID, it.ProductID); err != nil {
				log.Warn().Err(err).Uint("product_id", it.ProductID).Msg("checkout: low stock check failed")
			}
		}
	}

	if len(failures) > 0 && s.Alerts != nil {
		if err := s.Alerts.ReportFailures(ctx, sess.ShopID, tx.Code, failures); err != nil {
			log.Warn().Err(err).Str("transaction", tx.Code).Msg("checkout: failure report not saved")
		}
	}

	bill.reset()

	return &Receipt{
		Transaction: tx,
		Items:       items,
		Change:      change,
		Failures:    failures,
	}, nil
}

func (s *Checkout) fail(tx *models.Transaction, it models.BillItem, step string, err error) LineFailure {
	log.Error().Err(err).
		Str("transaction", tx.Code).
		Uint("product_id", it.ProductID).
		Float64("quantity", it.Quantity).
		Str("step", step).
		Msg("checkout: stock bookkeeping failed")
	return LineFailure{ProductID: it.ProductID, Name: it.Name, Step: step, Error: err.Error()}
}
