package tax

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	Unpaid        PaymentStatus = "Unpaid"
	PartiallyPaid PaymentStatus = "Partially Paid"
	Paid          PaymentStatus = "Paid"
)

// PaymentStatusFor derives the status from scratch; it is never stored as
// the result of a transition.
func PaymentStatusFor(paid, due decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		if !due.IsPositive() {
			return Paid
		}
		return Unpaid
	case paid.GreaterThanOrEqual(due):
		return Paid
	default:
		return PartiallyPaid
	}
}

// Outstanding is due - paid, floored at zero.
func Outstanding(paid, due decimal.Decimal) decimal.Decimal {
	rest := due.Sub(paid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
