package export

import (
	"fmt"
	"io"
	"strings"

	"retailpos-backend/internal/models"
	"retailpos-backend/internal/units"

	"github.com/go-pdf/fpdf"
)

const (
	DefaultRowsPerPage = 25
	maxRowsPerPage     = 30
	rowHeight          = 6.0
	footerSpace        = 15.0
)

type column struct {
	title string
	width float64
	align string
}

// document is a titled table paginated at a fixed number of rows.
type document struct {
	title   string
	heading []string
	meta    [][2]string
	columns []column
	rows    [][]string
	totals  [][2]string
}

func rowsPerPage(n int) int {
	if n <= 0 {
		return DefaultRowsPerPage
	}
	if n > maxRowsPerPage {
		return maxRowsPerPage
	}
	return n
}

func (d document) pages(perPage int) [][][]string {
	if len(d.rows) == 0 {
		return [][][]string{nil}
	}
	var out [][][]string
	for start := 0; start < len(d.rows); start += perPage {
		end := start + perPage
		if end > len(d.rows) {
			end = len(d.rows)
		}
		out = append(out, d.rows[start:end])
	}
	return out
}

func (d document) render(w io.Writer, perPage int) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(d.title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pages := d.pages(rowsPerPage(perPage))
	for i, rows := range pages {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(d.title), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, line := range d.heading {
			if line != "" {
				pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
			}
		}
		pdf.Ln(3)
		for _, kv := range d.meta {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(35, 5, tr(kv[0]), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(0, 5, tr(kv[1]), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range d.columns {
			pdf.CellFormat(c.width, rowHeight, tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, row := range rows {
			for j, c := range d.columns {
				cell := ""
				if j < len(row) {
					cell = row[j]
				}
				pdf.CellFormat(c.width, rowHeight, tr(cell), "1", 0, c.align, false, 0, "")
			}
			pdf.Ln(-1)
		}

		if i == len(pages)-1 {
			_, pageH := pdf.GetPageSize()
			if pdf.GetY()+3+6*float64(len(d.totals)) > pageH-footerSpace {
				pdf.AddPage()
			}
			pdf.Ln(3)
			for _, kv := range d.totals {
				pdf.SetFont("Helvetica", "B", 10)
				pdf.CellFormat(150, 6, tr(kv[0]), "", 0, "R", false, 0, "")
				pdf.SetFont("Helvetica", "", 10)
				pdf.CellFormat(40, 6, tr(kv[1]), "", 1, "R", false, 0, "")
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func shopHeading(shop models.Shop) []string {
	lines := []string{shop.Address, shop.Phone}
	if shop.GSTNumber != "" {
		lines = append(lines, "GSTIN: "+shop.GSTNumber)
	}
	return lines
}

// InvoicePDF renders a sales invoice for one transaction.
func InvoicePDF(w io.Writer, shop models.Shop, tx models.Transaction, perPage int) error {
	items, err := tx.Items()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNothingToExport
	}

	doc := document{
		title:   shop.Name,
		heading: shopHeading(shop),
		meta: [][2]string{
			{"Invoice", tx.Code},
			{"Date", tx.CreatedAt.Format(DateTimeLayout)},
			{"Cashier", tx.CashierName},
			{"Payment", strings.ToUpper(string(tx.PaymentMethod))},
		},
		columns: []column{
			{"#", 10, "C"},
			{"Item", 80, "L"},
			{"Qty", 30, "R"},
			{"Price", 35, "R"},
			{"Amount", 35, "R"},
		},
	}
	for i, it := range items {
		doc.rows = append(doc.rows, []string{
			fmt.Sprint(i + 1), it.Name, units.Format(units.Unit(it.Unit), it.Quantity),
			Currency(it.Price), Currency(it.LineTotal()),
		})
	}
	doc.totals = append(doc.totals, [2]string{"Total", Currency(tx.TotalAmount)})

	details, err := tx.PaymentDetails()
	if err != nil {
		return err
	}
	if details != nil {
		if details.AmountTendered != nil {
			doc.totals = append(doc.totals, [2]string{"Tendered", Currency(*details.AmountTendered)})
		}
		if details.Change != nil {
			doc.totals = append(doc.totals, [2]string{"Change", Currency(*details.Change)})
		}
		if details.Reference != "" {
			doc.meta = append(doc.meta, [2]string{"Reference", details.Reference})
		}
	}
	return doc.render(w, perPage)
}

// PurchasePDF renders a purchase entry with its products. Supplier is
// expected to be preloaded.
func PurchasePDF(w io.Writer, shop models.Shop, e models.PurchaseEntry, perPage int) error {
	if len(e.Products) == 0 {
		return ErrNothingToExport
	}

	supplier := ""
	if e.Supplier != nil {
		supplier = e.Supplier.Name
		if e.Supplier.GSTNumber != "" {
			supplier += " (GSTIN " + e.Supplier.GSTNumber + ")"
		}
	}
	doc := document{
		title:   shop.Name + " - Purchase Entry",
		heading: shopHeading(shop),
		meta: [][2]string{
			{"Supplier", supplier},
			{"Bill Number", e.BillNumber},
			{"Bill Date", date(e.BillDate)},
			{"Due Date", datePtr(e.DueDate)},
			{"Status", string(e.InvoiceType)},
		},
		columns: []column{
			{"Product", 55, "L"},
			{"Qty", 22, "R"},
			{"Rate", 25, "R"},
			{"GST %", 15, "R"},
			{"SGST", 22, "R"},
			{"CGST", 22, "R"},
			{"Total", 29, "R"},
		},
	}
	for _, p := range e.Products {
		doc.rows = append(doc.rows, []string{
			p.Name, units.Format(units.Unit(p.Unit), p.Stock), amount(p.StockPrice),
			p.GSTPercent.String(), amount(p.SGST), amount(p.CGST), amount(p.Total),
		})
	}
	doc.totals = [][2]string{
		{"Gross", Currency(e.Gross)},
		{"Total GST", Currency(e.TotalGST)},
		{fmt.Sprintf("Discount (%s%%)", e.DiscountPercent), Currency(e.DiscountAmount)},
		{fmt.Sprintf("Surcharge (%s%%)", e.SurchargePercent), Currency(e.SurchargeAmount)},
		{"Net", Currency(e.Net)},
		{"Round Off", Currency(e.RoundOff)},
		{"Paid", Currency(e.PaidAmount)},
	}
	return doc.render(w, perPage)
}

func InvoiceFilename(tx models.Transaction) string {
	return Filename("invoice_"+tx.Code, tx.CreatedAt, "pdf")
}

func PurchaseFilename(e models.PurchaseEntry) string {
	name := "purchase"
	if e.Supplier != nil && e.Supplier.Name != "" {
		name = e.Supplier.Name
	}
	if e.BillNumber != "" {
		name += "_" + e.BillNumber
	}
	return Filename(name, e.BillDate, "pdf")
}
