// Package returns records goods brought back against a transaction. A
// return never moves stock or revenue; it is bookkeeping that the shop
// settles by hand.
package returns

import (
	"errors"
	"fmt"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/units"
)

var (
	ErrProductNotSold    = errors.New("product is not part of the transaction")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrFractional        = errors.New("unit does not accept fractional quantities")
	ErrExceedsSold       = errors.New("quantity exceeds what is left to return")
	ErrStatusFinal       = errors.New("return is already settled")
	ErrInvalidTransition = errors.New("status must be Mistakenly or Damaged")
)

// Returnable is the sold quantity of productID left after earlier returns.
func Returnable(items []models.BillItem, earlier []models.ReturnRecord, productID uint) (models.BillItem, float64, error) {
	var sold float64
	var line models.BillItem
	found := false
	for _, it := range items {
		if it.ProductID == productID {
			sold += it.Quantity
			line = it
			found = true
		}
	}
	if !found {
		return line, 0, ErrProductNotSold
	}
	for _, r := range earlier {
		if r.ProductID == productID {
			sold -= r.Quantity
		}
	}
	if sold < 0 {
		sold = 0
	}
	return line, units.Round(sold), nil
}

// Check validates a return of qty of productID.
func Check(items []models.BillItem, earlier []models.ReturnRecord, productID uint, qty float64) (models.BillItem, error) {
	if qty <= 0 {
		return models.BillItem{}, ErrInvalidQuantity
	}
	line, left, err := Returnable(items, earlier, productID)
	if err != nil {
		return line, err
	}
	if !units.AllowsFraction(units.Unit(line.Unit)) && !units.IsWhole(qty) {
		return line, ErrFractional
	}
	if units.Round(qty) > left {
		return line, fmt.Errorf("%w: %s of %s left", ErrExceedsSold, units.Format(units.Unit(line.Unit), left), line.Name)
	}
	return line, nil
}

// InitialStatus is the status a new return is stored with. Empty means
// pending; otherwise the submitter settles it right away.
func InitialStatus(s models.ReturnStatus) (models.ReturnStatus, error) {
	if s == "" || s == models.ReturnPending {
		return models.ReturnPending, nil
	}
	if !s.Terminal() {
		return "", ErrInvalidTransition
	}
	return s, nil
}

// Transition moves a pending return to a terminal status.
func Transition(from, to models.ReturnStatus) error {
	if !to.Terminal() {
		return ErrInvalidTransition
	}
	if from.Terminal() {
		return ErrStatusFinal
	}
	return nil
}
