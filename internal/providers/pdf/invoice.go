// Package pdf lays invoices out as single-page documents.
package pdf

import (
	"context"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Line is one item row, already formatted for display.
type Line struct {
	Title     string
	Body      string
	Quantity  int64
	UnitPrice string
	Amount    string
}

// Document is the fully resolved input: all money and dates arrive as
// display strings, branding defaults already applied. Logo nil means
// render the no-logo layout.
type Document struct {
	BusinessName string
	Tagline      string
	AccentColor  string
	Logo         []byte

	Number    string
	IssueDate string
	DueDate   string

	BillTo []string
	Lines  []Line

	Subtotal string
	Tax      string
	ShowTax  bool
	Total    string

	ThankYou   string
	FooterNote string
}

type Provider interface {
	RenderInvoice(ctx context.Context, doc Document) ([]byte, error)
}

type marotoProvider struct{}

func New() Provider {
	return &marotoProvider{}
}

func (p *marotoProvider) RenderInvoice(_ context.Context, doc Document) ([]byte, error) {
	accent := parseHexColor(doc.AccentColor)

	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(0).
		Build()

	m := maroto.New(cfg)

	// Accent bar across the top of the page.
	m.AddRows(row.New(4).WithStyle(&props.Cell{BackgroundColor: accent}))
	m.AddRow(6, col.New(12))

	// Branding header, logo block on the right when present.
	if doc.Logo != nil {
		m.AddRow(22,
			col.New(8).Add(
				text.New(doc.BusinessName, props.Text{Size: 18, Style: fontstyle.Bold}),
				text.New(doc.Tagline, props.Text{Size: 9, Top: 9}),
			),
			image.NewFromBytesCol(4, doc.Logo, extension.Png, props.Rect{
				Percent: 90,
				Center:  true,
			}),
		)
	} else {
		m.AddRow(22,
			col.New(12).Add(
				text.New(doc.BusinessName, props.Text{Size: 18, Style: fontstyle.Bold}),
				text.New(doc.Tagline, props.Text{Size: 9, Top: 9}),
			),
		)
	}

	// Invoice metadata, right-aligned.
	m.AddRow(16,
		col.New(6),
		col.New(6).Add(
			text.New("Invoice "+doc.Number, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
			text.New("Issued: "+doc.IssueDate, props.Text{Size: 9, Top: 6, Align: align.Right}),
			text.New("Due: "+doc.DueDate, props.Text{Size: 9, Top: 10, Align: align.Right}),
		),
	)

	// Bill-to block.
	billTo := col.New(6).Add(text.New("Bill to", props.Text{Size: 9, Style: fontstyle.Bold}))
	for i, line := range doc.BillTo {
		billTo.Add(text.New(line, props.Text{Size: 9, Top: float64(5 + i*4)}))
	}
	m.AddRow(float64(10+len(doc.BillTo)*4), billTo, col.New(6))

	// Item table.
	m.AddRow(8,
		text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(7, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "Amount", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRows(row.New(1).WithStyle(&props.Cell{BackgroundColor: accent}))

	for _, line := range doc.Lines {
		height := 8.0
		desc := col.New(7).Add(text.New(line.Title, props.Text{Size: 9, Style: fontstyle.Bold}))
		if line.Title == "" {
			desc = col.New(7).Add(text.New(line.Body, props.Text{Size: 9}))
		} else if line.Body != "" {
			desc.Add(text.New(line.Body, props.Text{Size: 8, Top: 4}))
			height = 12
		}
		m.AddRow(height,
			text.NewCol(2, strconv.FormatInt(line.Quantity, 10), props.Text{Size: 9}),
			desc,
			text.NewCol(3, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Totals block, separated by an accent stripe.
	m.AddRow(4, col.New(12))
	m.AddRows(row.New(1).WithStyle(&props.Cell{BackgroundColor: accent}))
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, doc.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if doc.ShowTax {
		m.AddRow(8,
			col.New(7),
			text.NewCol(2, "Tax", props.Text{Size: 9}),
			text.NewCol(3, doc.Tax, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Size: 11, Style: fontstyle.Bold}),
		text.NewCol(3, doc.Total, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
	)

	// Footer.
	m.AddRow(12,
		text.NewCol(12, doc.ThankYou, props.Text{Size: 9, Top: 6, Align: align.Center}),
	)
	if doc.FooterNote != "" {
		m.AddRow(8,
			text.NewCol(12, doc.FooterNote, props.Text{Size: 8, Align: align.Center}),
		)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

// parseHexColor reads "#RRGGBB"; anything else falls back to black.
func parseHexColor(value string) *props.Color {
	if len(value) != 7 || value[0] != '#' {
		return &props.Color{}
	}
	r, err1 := strconv.ParseUint(value[1:3], 16, 8)
	g, err2 := strconv.ParseUint(value[3:5], 16, 8)
	b, err3 := strconv.ParseUint(value[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return &props.Color{}
	}
	return &props.Color{Red: int(r), Green: int(g), Blue: int(b)}
}
