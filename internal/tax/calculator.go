package tax

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// LineTax is the GST split of one taxable line. SGST and CGST are always equal.
type LineTax struct {
	Base  decimal.Decimal `json:"base"`
	SGST  decimal.Decimal `json:"sgst"`
	CGST  decimal.Decimal `json:"cgst"`
	Total decimal.Decimal `json:"total"`
}

// GST returns SGST + CGST.
func (l LineTax) GST() decimal.Decimal {
	return l.SGST.Add(l.CGST)
}

// Line splits GST at rate percent over base. With tax disabled the
// halves are zero and the total is the base itself.
func Line(base, rate decimal.Decimal, enabled bool) LineTax {
	if !enabled {
		return LineTax{Base: base, SGST: decimal.Zero, CGST: decimal.Zero, Total: base}
	}
	half := base.Mul(rate).Div(hundred).Div(two)
	return LineTax{
		Base:  base,
		SGST:  half,
		CGST:  half,
		Total: base.Add(half).Add(half),
	}
}

// Summary holds the purchase entry aggregates.
type Summary struct {
	Gross           decimal.Decimal `json:"gross"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	SurchargeAmount decimal.Decimal `json:"surcharge_amount"`
	TotalGST        decimal.Decimal `json:"total_gst"`
	Net             decimal.Decimal `json:"net"`
	RoundOff        decimal.Decimal `json:"round_off"`
}

// Aggregate totals the lines of a purchase entry.
//
// DiscountAmount is reported only, Net does not subtract it.
// Percentages are not clamped.
func Aggregate(lines []LineTax, discountPercent, surchargePercent decimal.Decimal) Summary {
	gross := decimal.Zero
	gst := decimal.Zero
	for _, l := range lines {
		gross = gross.Add(l.Total)
		gst = gst.Add(l.GST())
	}

	discount := gross.Mul(discountPercent).Div(hundred)
	surcharge := gross.Mul(surchargePercent).Div(hundred)
	net := gross.Add(gst).Add(surcharge)

	return Summary{
		Gross:           gross,
		DiscountAmount:  discount,
		SurchargeAmount: surcharge,
		TotalGST:        gst,
		Net:             net,
		RoundOff:        RoundToHundred(net),
	}
}

// RoundToHundred rounds to the nearest multiple of 100, half away from zero.
func RoundToHundred(v decimal.Decimal) decimal.Decimal {
	return v.Round(-2)
}
