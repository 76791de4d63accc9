package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"erp-service/internal/models"
)

// RenderQuotePDF lays out a quote as a printable document.
func RenderQuotePDF(q *models.Quote) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	addQuoteHeader(m, q)
	addQuoteCustomer(m, q)
	addQuoteItems(m, q)
	addQuoteTotals(m, q)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addQuoteHeader(m core.Maroto, q *models.Quote) {
	validUntil := "-"
	if q.ValidUntil != nil {
		validUntil = q.ValidUntil.Format(dateLayout)
	}

	m.AddRow(24,
		col.New(6).Add(
			text.New("QUOTE", props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Left}),
			text.New(q.Number, props.Text{Size: 11, Top: 10, Align: align.Left}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Issued: %s", q.IssueDate.Format(dateLayout)), props.Text{Size: 10, Align: align.Right}),
			text.New(fmt.Sprintf("Valid until: %s", validUntil), props.Text{Size: 10, Top: 5, Align: align.Right}),
			text.New(fmt.Sprintf("Status: %s", q.Status), props.Text{Size: 10, Top: 10, Align: align.Right}),
		),
	)
	m.AddRow(5, line.NewCol(12))
}

func addQuoteCustomer(m core.Maroto, q *models.Quote) {
	if q.Customer == nil {
		return
	}
	c := q.Customer
	m.AddRow(22,
		col.New(12).Add(
			text.New("CUSTOMER", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}),
			text.New(fmt.Sprintf("%s (%s)", c.Name, c.Number), props.Text{Size: 10, Top: 5, Align: align.Left}),
			text.New(c.Address, props.Text{Size: 9, Top: 10, Align: align.Left}),
			text.New(c.Email, props.Text{Size: 9, Top: 15, Align: align.Left}),
		),
	)
	m.AddRow(5, line.NewCol(12))
}

func addQuoteItems(m core.Maroto, q *models.Quote) {
	header := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}
	headerRight := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(8,
		col.New(5).Add(text.New("Description", header)),
		col.New(2).Add(text.New("Qty", headerRight)),
		col.New(2).Add(text.New("Unit price", headerRight)),
		col.New(1).Add(text.New("VAT %", headerRight)),
		col.New(2).Add(text.New("Total HT", headerRight)),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9, Align: align.Left}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, item := range q.Items {
		m.AddRow(7,
			col.New(5).Add(text.New(item.Description, cell)),
			col.New(2).Add(text.New(fmt.Sprintf("%g", item.Quantity), cellRight)),
			col.New(2).Add(text.New(formatAmount(item.UnitPrice), cellRight)),
			col.New(1).Add(text.New(fmt.Sprintf("%g", item.VATRate), cellRight)),
			col.New(2).Add(text.New(formatAmount(item.TotalHT), cellRight)),
		)
	}
	m.AddRow(3, line.NewCol(12))
}

func addQuoteTotals(m core.Maroto, q *models.Quote) {
	label := props.Text{Size: 10, Align: align.Right}
	value := props.Text{Size: 10, Align: align.Right}
	totals := []struct {
		name   string
		amount float64
	}{
		{"Subtotal HT", q.SubtotalHT},
		{"VAT", q.TotalVAT},
		{"Total TTC", q.TotalTTC},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			label.Style = fontstyle.Bold
			value.Style = fontstyle.Bold
		}
		m.AddRow(6,
			col.New(8),
			col.New(2).Add(text.New(t.name, label)),
			col.New(2).Add(text.New(formatAmount(t.amount), value)),
		)
	}

	if q.Notes != "" {
		m.AddRow(5, line.NewCol(12))
		m.AddRow(15, col.New(12).Add(text.New(q.Notes, props.Text{Size: 9, Align: align.Left})))
	}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
