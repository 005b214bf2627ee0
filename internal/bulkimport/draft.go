package bulkimport

import (
	"retailpos-backend/internal/tax"

	"github.com/shopspring/decimal"
)

// Draft accumulates imported records until they are saved as a purchase
// entry. Repeated uploads merge by record ID instead of replacing.
type Draft struct {
	order   []string
	records map[string]Record
}

func NewDraft() *Draft {
	return &Draft{records: make(map[string]Record)}
}

// Merge adds new records and replaces those whose ID is already present.
// It returns how many records were new.
func (d *Draft) Merge(recs []Record) int {
	if d.records == nil {
		d.records = make(map[string]Record)
	}
	added := 0
	for _, r := range recs {
		if _, ok := d.records[r.ID]; !ok {
			d.order = append(d.order, r.ID)
			added++
		}
		d.records[r.ID] = r
	}
	return added
}

func (d *Draft) Remove(id string) bool {
	if _, ok := d.records[id]; !ok {
		return false
	}
	delete(d.records, id)
	for i, k := range d.order {
		if k == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

func (d *Draft) Records() []Record {
	out := make([]Record, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.records[id])
	}
	return out
}

func (d *Draft) Len() int { return len(d.order) }

func (d *Draft) Clear() {
	d.order = nil
	d.records = make(map[string]Record)
}

// Summary aggregates the draft as it would be saved.
func (d *Draft) Summary(discountPercent, surchargePercent decimal.Decimal) tax.Summary {
	lines := make([]tax.LineTax, 0, len(d.order))
	for _, r := range d.Records() {
		lines = append(lines, r.LineTax())
	}
	return tax.Aggregate(lines, discountPercent, surchargePercent)
}
