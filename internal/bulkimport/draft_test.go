package bulkimport

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDraftMerge(t *testing.T) {
	d := NewDraft()
	a := Record{ID: "a", Name: "Tea", Total: decimal.NewFromInt(100)}
	b := Record{ID: "b", Name: "Sugar", Total: decimal.NewFromInt(50)}

	if n := d.Merge([]Record{a, b}); n != 2 {
		t.Fatalf("added = %d", n)
	}

	a.Name = "Green Tea"
	c := Record{ID: "c", Name: "Salt"}
	if n := d.Merge([]Record{a, c}); n != 1 {
		t.Fatalf("second merge added = %d, want 1", n)
	}

	recs := d.Records()
	if d.Len() != 3 || recs[0].Name != "Green Tea" || recs[1].ID != "b" || recs[2].ID != "c" {
		t.Errorf("records = %+v", recs)
	}

	if !d.Remove("b") || d.Remove("b") {
		t.Errorf("remove should succeed once")
	}
	if recs = d.Records(); len(recs) != 2 || recs[1].ID != "c" {
		t.Errorf("after remove = %+v", recs)
	}

	d.Clear()
	if d.Len() != 0 || len(d.Records()) != 0 {
		t.Errorf("clear left %d records", d.Len())
	}
}

func TestDraftSummary(t *testing.T) {
	var d Draft
	res := Mapper{NewID: seqIDs()}.Map([]Row{validRow(), with(validRow(), ColStock, "5")})
	d.Merge(res.Accepted)

	s := d.Summary(decimal.Zero, decimal.Zero)
	// lines of 840 and 420, GST 40 and 20
	if !s.Gross.Equal(decimal.NewFromInt(1260)) || !s.TotalGST.Equal(decimal.NewFromInt(60)) {
		t.Errorf("summary = %+v", s)
	}
	if !s.RoundOff.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("round off = %s, want 1300", s.RoundOff)
	}
}
