// Package snapshot builds the normalized, read-only projection of an
// invoice used for document rendering. A snapshot is built fresh from
// either a persisted invoice or an editable draft and never mutated in
// place after construction.
package snapshot

import (
	"strings"
	"time"
	"unicode/utf8"

	clientdomain "github.com/billfold/billfold/internal/client/domain"
	"github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/money"
	"github.com/shopspring/decimal"
)

// legacyTitleMax is the length up to which a separator-less description
// is treated as a title rather than a body.
const legacyTitleMax = 40

// Line is one rendered row. Empty Title or Body means absent.
type Line struct {
	Title    string
	Body     string
	Quantity int64
	// UnitPrice and Amount carry coerced values.
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

// BillTo is the client block rendered on the document.
type BillTo struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Zip     string
}

// Snapshot is the uniform shape both drafts and persisted invoices
// normalize into.
type Snapshot struct {
	Number   string
	Status   domain.InvoiceStatus
	Currency string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	IssuedAt *time.Time
	DueAt    *time.Time
	Notes    string
	BillTo   BillTo
	Lines    []Line
}

// ResolveLine applies the title/description resolution policy.
//
// An explicit non-empty title wins; a description equal to the title
// collapses to title-only. Without a title, legacy descriptions are
// split on " – " or " - "; separator-less text up to 40 characters is
// a title, anything longer a body.
func ResolveLine(title, description string) (string, string) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title != "" {
		if description == "" || description == title {
			return title, ""
		}
		return title, description
	}

	if description == "" {
		return "", ""
	}

	for _, sep := range []string{" – ", " - "} {
		idx := strings.Index(description, sep)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(description[:idx])
		right := strings.TrimSpace(description[idx+len(sep):])
		switch {
		case left != "" && right != "":
			return left, right
		case left != "":
			return left, ""
		case right != "":
			return "", right
		default:
			return "", ""
		}
	}

	if utf8.RuneCountInString(description) <= legacyTitleMax {
		return description, ""
	}
	return "", description
}

// BuildFromDraft normalizes an in-progress draft. Totals are computed
// from the draft lines and its flat tax; quantities and prices go
// through the money coercion rules.
func BuildFromDraft(draft domain.Draft, number string, client *clientdomain.Client) Snapshot {
	lines := make([]Line, 0, len(draft.Lines))
	moneyLines := make([]money.Line, 0, len(draft.Lines))
	for _, dl := range draft.Lines {
		title, body := ResolveLine(dl.Title, dl.Description)
		qty := money.CoerceQuantity(dl.Quantity)
		price := money.CoerceUnitPrice(dl.UnitPrice)
		lines = append(lines, Line{
			Title:     title,
			Body:      body,
			Quantity:  qty,
			UnitPrice: price,
			Amount:    money.LineAmount(dl.Quantity, dl.UnitPrice),
		})
		moneyLines = append(moneyLines, money.Line{Quantity: dl.Quantity, UnitPrice: dl.UnitPrice})
	}

	totals := money.Sum(moneyLines, draft.Tax)

	return Snapshot{
		Number:   number,
		Status:   domain.InvoiceStatusDraft,
		Currency: strings.ToUpper(strings.TrimSpace(draft.Currency)),
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		DueAt:    draft.DueAt,
		Notes:    strings.TrimSpace(draft.Notes),
		BillTo:   billTo(client),
		Lines:    lines,
	}
}

// BuildFromInvoice normalizes a persisted invoice and its items.
// Stored amounts are recomputed so the subtotal invariant holds even
// for rows written by older clients.
func BuildFromInvoice(inv domain.Invoice, items []domain.LineItem, client *clientdomain.Client) Snapshot {
	lines := make([]Line, 0, len(items))
	moneyLines := make([]money.Line, 0, len(items))
	for _, item := range items {
		title := ""
		if item.Title != nil {
			title = *item.Title
		}
		resolvedTitle, body := ResolveLine(title, item.Description)
		lines = append(lines, Line{
			Title:     resolvedTitle,
			Body:      body,
			Quantity:  money.CoerceQuantity(item.Quantity),
			UnitPrice: money.CoerceUnitPrice(item.UnitPrice),
			Amount:    money.LineAmount(item.Quantity, item.UnitPrice),
		})
		moneyLines = append(moneyLines, money.Line{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	totals := money.Sum(moneyLines, inv.Tax)

	bill := billTo(client)
	if bill.Name == "" {
		bill.Name = inv.ClientName
	}

	return Snapshot{
		Number:   inv.Number,
		Status:   inv.Status,
		Currency: inv.Currency,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		IssuedAt: inv.IssuedAt,
		DueAt:    inv.DueAt,
		Notes:    inv.Notes,
		BillTo:   bill,
		Lines:    lines,
	}
}

func billTo(client *clientdomain.Client) BillTo {
	if client == nil {
		return BillTo{}
	}
	return BillTo{
		Name:    client.Name,
		Email:   client.Email,
		Phone:   client.Phone,
		Address: client.Address,
		City:    client.City,
		State:   client.State,
		Zip:     client.Zip,
	}
}
