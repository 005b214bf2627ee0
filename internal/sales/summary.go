package sales

import (
	"sort"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/units"

	"github.com/shopspring/decimal"
)

type Summary struct {
	Transactions int                                      `json:"transactions"`
	Revenue      decimal.Decimal                          `json:"revenue"`
	AverageBill  decimal.Decimal                          `json:"average_bill"`
	ItemsSold    float64                                  `json:"items_sold"`
	ByMethod     map[models.PaymentMethod]decimal.Decimal `json:"by_method"`
	TopProducts  []ProductSales                           `json:"top_products"`
}

type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  float64         `json:"quantity"`
	Display   string          `json:"display"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Summarize totals transactions and ranks products by revenue, keeping at
// most top entries. Transactions with unreadable items still count toward
// revenue.
func Summarize(txs []models.Transaction, top int) Summary {
	s := Summary{
		Revenue:     decimal.Zero,
		AverageBill: decimal.Zero,
		ByMethod: map[models.PaymentMethod]decimal.Decimal{
			models.PaymentCash: decimal.Zero,
			models.PaymentCard: decimal.Zero,
			models.PaymentUPI:  decimal.Zero,
		},
		TopProducts: []ProductSales{},
	}

	byProduct := make(map[uint]*ProductSales)
	for _, tx := range txs {
		s.Transactions++
		s.Revenue = s.Revenue.Add(tx.TotalAmount)
		s.ByMethod[tx.PaymentMethod] = s.ByMethod[tx.PaymentMethod].Add(tx.TotalAmount)

		items, err := tx.Items()
		if err != nil {
			continue
		}
		for _, it := range items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID, Name: it.Name, Unit: it.Unit, Revenue: decimal.Zero}
				byProduct[it.ProductID] = ps
			}
			ps.Quantity = units.Round(ps.Quantity + it.Quantity)
			ps.Revenue = ps.Revenue.Add(it.LineTotal())
			s.ItemsSold = units.Round(s.ItemsSold + it.Quantity)
		}
	}
	if s.Transactions > 0 {
		s.AverageBill = s.Revenue.Div(decimal.NewFromInt(int64(s.Transactions))).Round(2)
	}

	for _, ps := range byProduct {
		ps.Display = units.Format(units.Unit(ps.Unit), ps.Quantity)
		s.TopProducts = append(s.TopProducts, *ps)
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		a, b := s.TopProducts[i], s.TopProducts[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.ProductID < b.ProductID
	})
	if top > 0 && len(s.TopProducts) > top {
		s.TopProducts = s.TopProducts[:top]
	}
	return s
}
