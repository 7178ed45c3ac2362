// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "DRAFT"
	InvoiceStatusOpen     InvoiceStatus = "OPEN"
	InvoiceStatusSent     InvoiceStatus = "SENT"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusOverdue  InvoiceStatus = "OVERDUE"
	InvoiceStatusArchived InvoiceStatus = "ARCHIVED"
)

// Invoice represents a persisted invoice.
//
// ClientName is denormalized at write time so list views and activity
// rows never need a live join against clients.
type Invoice struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_invoices_user_number,priority:1" json:"user_id"`
	ClientID   snowflake.ID      `gorm:"not null;index" json:"client_id"`
	ClientName string            `gorm:"type:text;not null" json:"client_name"`
	Number     string            `gorm:"type:text;not null;uniqueIndex:ux_invoices_user_number,priority:2" json:"number"`
	Status     InvoiceStatus     `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Currency   string            `gorm:"type:text;not null" json:"currency"`
	Subtotal   decimal.Decimal   `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	Tax        decimal.Decimal   `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`
	Total      decimal.Decimal   `gorm:"type:decimal(20,2);not null;default:0" json:"total"`
	Notes      string            `gorm:"type:text" json:"notes,omitempty"`
	IssuedAt   *time.Time        `gorm:"" json:"issued_at,omitempty"`
	DueAt      *time.Time        `gorm:"" json:"due_at,omitempty"`
	PaidAt     *time.Time        `gorm:"" json:"paid_at,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []LineItem `gorm:"-" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem represents a line on an invoice. Amount is always recomputed
// from Quantity and UnitPrice, never edited independently.
type LineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID    `gorm:"not null;index" json:"user_id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Title       *string         `gorm:"type:text" json:"title,omitempty"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }

// Terminal reports whether no further lifecycle transitions apply.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusArchived
}

// Payable reports whether a checkout link may still be issued.
func (s InvoiceStatus) Payable() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusSent, InvoiceStatusOverdue:
		return true
	default:
		return false
	}
}
