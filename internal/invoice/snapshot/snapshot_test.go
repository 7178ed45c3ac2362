package snapshot

import (
	"strings"
	"testing"

	clientdomain "github.com/billfold/billfold/internal/client/domain"
	"github.com/billfold/billfold/internal/invoice/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLine_ExplicitTitle(t *testing.T) {
	title, body := ResolveLine("Labor", "Labor")
	assert.Equal(t, "Labor", title)
	assert.Empty(t, body)

	title, body = ResolveLine("Labor", "  Labor  ")
	assert.Equal(t, "Labor", title)
	assert.Empty(t, body)

	title, body = ResolveLine("Labor", "Two days on site")
	assert.Equal(t, "Labor", title)
	assert.Equal(t, "Two days on site", body)

	title, body = ResolveLine("Labor", "")
	assert.Equal(t, "Labor", title)
	assert.Empty(t, body)
}

func TestResolveLine_LegacySeparator(t *testing.T) {
	title, body := ResolveLine("", "Labor – Drywall repair")
	assert.Equal(t, "Labor", title)
	assert.Equal(t, "Drywall repair", body)

	title, body = ResolveLine("", "Labor - Drywall repair")
	assert.Equal(t, "Labor", title)
	assert.Equal(t, "Drywall repair", body)

	title, body = ResolveLine("", "Labor – ")
	assert.Equal(t, "Labor", title)
	assert.Empty(t, body)

	title, body = ResolveLine("", " – Drywall repair")
	assert.Empty(t, title)
	assert.Equal(t, "Drywall repair", body)
}

func TestResolveLine_NoSeparator(t *testing.T) {
	short := "Consulting"
	title, body := ResolveLine("", short)
	assert.Equal(t, short, title)
	assert.Empty(t, body)

	long := strings.Repeat("x", 41)
	title, body = ResolveLine("", long)
	assert.Empty(t, title)
	assert.Equal(t, long, body)

	// 40 characters is still a title
	edge := strings.Repeat("x", 40)
	title, body = ResolveLine("", edge)
	assert.Equal(t, edge, title)
	assert.Empty(t, body)

	// The threshold counts characters, not bytes.
	accented := strings.Repeat("é", 25)
	title, body = ResolveLine("", accented)
	assert.Equal(t, accented, title)
	assert.Empty(t, body)

	accentedLong := strings.Repeat("é", 41)
	title, body = ResolveLine("", accentedLong)
	assert.Empty(t, title)
	assert.Equal(t, accentedLong, body)
}

func TestResolveLine_Empty(t *testing.T) {
	title, body := ResolveLine("", "")
	assert.Empty(t, title)
	assert.Empty(t, body)
}

func TestBuildFromDraft_Totals(t *testing.T) {
	draft := domain.Draft{
		Currency: "usd",
		Tax:      decimal.NewFromInt(2),
		Lines: []domain.DraftLine{
			{Description: "Labor", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{Description: "Parts", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
	}

	snap := BuildFromDraft(draft, "INV-0001", nil)

	assert.Equal(t, "25", snap.Subtotal.String())
	assert.Equal(t, "2", snap.Tax.String())
	assert.Equal(t, "27", snap.Total.String())
	assert.Equal(t, "USD", snap.Currency)
	assert.Equal(t, domain.InvoiceStatusDraft, snap.Status)
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "Labor", snap.Lines[0].Title)
}

func TestBuildFromDraft_CoercesLines(t *testing.T) {
	draft := domain.Draft{
		Currency: "USD",
		Lines: []domain.DraftLine{
			{Description: "Freebie", Quantity: 0, UnitPrice: decimal.NewFromInt(-3)},
		},
	}

	snap := BuildFromDraft(draft, "", nil)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(1), snap.Lines[0].Quantity)
	assert.True(t, snap.Lines[0].UnitPrice.IsZero())
	assert.True(t, snap.Lines[0].Amount.IsZero())
}

func TestBuildFromInvoice_RecomputesAmounts(t *testing.T) {
	title := "Labor"
	inv := domain.Invoice{
		Number:     "INV-0002",
		Status:     domain.InvoiceStatusOpen,
		Currency:   "USD",
		ClientName: "Acme Co",
		Tax:        decimal.Zero,
	}
	items := []domain.LineItem{
		{
			Title:       &title,
			Description: "Drywall repair",
			Quantity:    3,
			UnitPrice:   decimal.NewFromInt(40),
			// Stale stored amount is ignored.
			Amount: decimal.NewFromInt(999),
		},
	}

	snap := BuildFromInvoice(inv, items, nil)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "120", snap.Lines[0].Amount.String())
	assert.Equal(t, "120", snap.Subtotal.String())
	assert.Equal(t, "Acme Co", snap.BillTo.Name)
}

func TestBuildFromInvoice_ClientBlockWins(t *testing.T) {
	inv := domain.Invoice{ClientName: "Old Name"}
	client := &clientdomain.Client{Name: "Acme Co", Email: "billing@acme.test"}

	snap := BuildFromInvoice(inv, nil, client)

	assert.Equal(t, "Acme Co", snap.BillTo.Name)
	assert.Equal(t, "billing@acme.test", snap.BillTo.Email)
}
