package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unit is the selling unit of a product (piece, kg, liter, xl ...).
type Unit string

const (
	Piece Unit = "piece"
	Pack  Unit = "pack"

	Kg    Unit = "kg"
	Liter Unit = "liter"
	Ml    Unit = "ml"

	SizeS   Unit = "s"
	SizeM   Unit = "m"
	SizeL   Unit = "l"
	SizeXL  Unit = "xl"
	SizeXXL Unit = "xxl"
	Size3XL Unit = "xxxl"
)

type Kind int

const (
	Discrete Kind = iota
	Continuous
	Sized
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Sized:
		return "sized"
	default:
		return "discrete"
	}
}

var ErrUnknownUnit = errors.New("unknown unit")

var kinds = map[Unit]Kind{
	Piece:   Discrete,
	Pack:    Discrete,
	Kg:      Continuous,
	Liter:   Continuous,
	Ml:      Continuous,
	SizeS:   Sized,
	SizeM:   Sized,
	SizeL:   Sized,
	SizeXL:  Sized,
	SizeXXL: Sized,
	Size3XL: Sized,
}

// spreadsheet and form spellings
var aliases = map[string]Unit{
	"pc":     Piece,
	"pcs":    Piece,
	"pieces": Piece,
	"packs":  Pack,
	"kgs":    Kg,
	"litre":  Liter,
	"liters": Liter,
	"litres": Liter,
	"ltr":    Liter,
	"lt":     Liter,
	"small":  SizeS,
	"medium": SizeM,
	"large":  SizeL,
	"2xl":    SizeXXL,
	"3xl":    Size3XL,
}

// Parse normalizes a user supplied unit. Empty input is a piece.
func Parse(raw string) (Unit, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Piece, nil
	}
	if u, ok := aliases[s]; ok {
		return u, nil
	}
	u := Unit(s)
	if _, ok := kinds[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
	return u, nil
}

// KindOf classifies u. Unknown units count as discrete.
func KindOf(u Unit) Kind {
	if k, ok := kinds[u]; ok {
		return k
	}
	return Discrete
}

func IsContinuous(u Unit) bool { return KindOf(u) == Continuous }

// AllowsFraction reports whether a fractional quantity may be entered.
func AllowsFraction(u Unit) bool { return IsContinuous(u) }

// Step is the increment/decrement size used by the bill stepper.
func Step(u Unit) float64 {
	if IsContinuous(u) {
		return 0.1
	}
	return 1
}

// Round trims float noise left by repeated 0.1 steps.
func Round(q float64) float64 {
	return math.Round(q*1000) / 1000
}

// IsWhole reports whether q is an integral quantity (after noise trimming).
func IsWhole(q float64) bool {
	r := Round(q)
	return r == math.Trunc(r)
}

// Format renders a quantity for invoices, bills and reports.
//
//	2.5 kg  -> "2.50 kg"
//	1 piece -> "1 piece", 3 piece -> "3 pieces"
//	2 xl    -> "2 XL"
func Format(u Unit, q float64) string {
	switch KindOf(u) {
	case Continuous:
		return fmt.Sprintf("%.2f %s", q, u)
	case Sized:
		return fmt.Sprintf("%d %s", int64(math.Round(q)), strings.ToUpper(string(u)))
	}

	n := int64(math.Round(q))
	label := string(u)
	if label == "" {
		label = string(Piece)
	}
	if n != 1 {
		label += "s"
	}
	return fmt.Sprintf("%d %s", n, label)
}

// All returns the known units, discrete first.
func All() []Unit {
	return []Unit{Piece, Pack, Kg, Liter, Ml, SizeS, SizeM, SizeL, SizeXL, SizeXXL, Size3XL}
}
