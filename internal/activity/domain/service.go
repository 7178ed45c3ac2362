package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultPageSize is the fixed feed page size.
const DefaultPageSize = 20

// RecordRequest captures one invoice transition.
type RecordRequest struct {
	UserID        snowflake.ID
	InvoiceID     *snowflake.ID
	Kind          EventKind
	InvoiceNumber string
	ClientName    string
	OccurredAt    time.Time
}

type ListRequest struct {
	Offset   int
	PageSize int
}

// ListResponse is one fetched page. ReachedEnd is set when the page
// came back shorter than requested.
type ListResponse struct {
	Events     []Event `json:"events"`
	ReachedEnd bool    `json:"reached_end"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Event, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// MarkAllRead stamps every unread event and returns the settled
	// unread count (always zero on success).
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int64, error)
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidKind = errors.New("invalid_kind")
)
