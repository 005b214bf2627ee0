// Package sales reports on checked-out transactions.
package sales

import (
	"sort"
	"time"

	"retailpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

type ChartPoint struct {
	Label string          `json:"label"` // first day of the bucket
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	UPI   decimal.Decimal `json:"upi"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type ChartTotals struct {
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	UPI   decimal.Decimal `json:"upi"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type Chart struct {
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

// ParsePeriod falls back to daily and picks the default bucket count.
func ParsePeriod(raw string) (Period, int) {
	switch Period(raw) {
	case Weekly:
		return Weekly, 8
	case Monthly:
		return Monthly, 12
	}
	return Daily, 7
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(p Period, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch p {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

func step(p Period, t time.Time, n int) time.Time {
	switch p {
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return t.AddDate(0, n, 0)
	}
	return t.AddDate(0, 0, n)
}

// Window returns the first bucket start and the exclusive end covering
// count buckets up to and including the one holding now.
func Window(p Period, count int, now time.Time) (start, end time.Time) {
	last := bucketStart(p, now)
	return step(p, last, -(count - 1)), step(p, last, 1)
}

// BuildChart buckets transactions by payment method. Every bucket in the
// window is present, empty ones with zero totals.
func BuildChart(p Period, count int, now time.Time, txs []models.Transaction) Chart {
	start, end := Window(p, count, now)

	points := make([]ChartPoint, 0, count)
	index := make(map[time.Time]int, count)
	for b := start; b.Before(end); b = step(p, b, 1) {
		index[b] = len(points)
		points = append(points, ChartPoint{
			Label: b.Format("2006-01-02"),
			Cash:  decimal.Zero, Card: decimal.Zero, UPI: decimal.Zero, Total: decimal.Zero,
		})
	}

	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	grand := ChartTotals{Cash: decimal.Zero, Card: decimal.Zero, UPI: decimal.Zero, Total: decimal.Zero}
	for _, tx := range sorted {
		at := tx.CreatedAt.In(now.Location())
		i, ok := index[bucketStart(p, at)]
		if !ok {
			continue
		}
		pt := &points[i]
		switch tx.PaymentMethod {
		case models.PaymentCash:
			pt.Cash = pt.Cash.Add(tx.TotalAmount)
			grand.Cash = grand.Cash.Add(tx.TotalAmount)
		case models.PaymentCard:
			pt.Card = pt.Card.Add(tx.TotalAmount)
			grand.Card = grand.Card.Add(tx.TotalAmount)
		case models.PaymentUPI:
			pt.UPI = pt.UPI.Add(tx.TotalAmount)
			grand.UPI = grand.UPI.Add(tx.TotalAmount)
		default:
			continue
		}
		pt.Total = pt.Total.Add(tx.TotalAmount)
		pt.Count++
		grand.Total = grand.Total.Add(tx.TotalAmount)
		grand.Count++
	}

	return Chart{
		Period:      p,
		From:        start.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}
