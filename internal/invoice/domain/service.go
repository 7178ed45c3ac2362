package domain

import (
	"context"
	"errors"
	"time"

	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

// DraftLine is one editable row of a draft invoice.
type DraftLine struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Draft is an in-progress invoice as edited in a client, before or
// instead of persistence.
type Draft struct {
	ClientID string          `json:"client_id"`
	Currency string          `json:"currency"`
	Tax      decimal.Decimal `json:"tax"`
	Notes    string          `json:"notes"`
	DueAt    *time.Time      `json:"due_at"`
	Lines    []DraftLine     `json:"lines"`
}

type CreateInvoiceRequest struct {
	Draft Draft
}

type UpdateInvoiceRequest struct {
	ID    string
	Draft Draft
}

type ListInvoiceRequest struct {
	PageToken string
	PageSize  int32
	Status    string
	ClientID  string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// SendResult carries everything a share action needs.
type SendResult struct {
	Invoice     Invoice `json:"invoice"`
	CheckoutURL string  `json:"checkout_url"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, id string) (SendResult, error)
	MarkPaid(ctx context.Context, id string) (Invoice, error)
	MarkOpened(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) (Invoice, error)
	SweepOverdue(ctx context.Context) (int, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNoLines         = errors.New("no_line_items")
	ErrNotFound        = errors.New("not_found")
	ErrNotEditable     = errors.New("not_editable")
	ErrNotPayable      = errors.New("not_payable")
)
