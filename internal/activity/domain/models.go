// Package domain contains core types for the activity feed.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EventKind identifies the invoice transition an event records.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventSent     EventKind = "sent"
	EventOpened   EventKind = "opened"
	EventPaid     EventKind = "paid"
	EventArchived EventKind = "archived"
	EventDeleted  EventKind = "deleted"
	EventOverdue  EventKind = "overdue"
	EventDueSoon  EventKind = "due_soon"
)

// Event is one activity row. InvoiceNumber and ClientName are
// denormalized at write time so the feed renders without joins; an
// event outlives the invoice it refers to. ReadAt null means unread
// and is never re-nulled once set.
type Event struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ULID          string       `gorm:"type:text;not null;uniqueIndex" json:"ulid"`
	UserID        snowflake.ID `gorm:"not null;index" json:"user_id"`
	InvoiceID     *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	Kind          EventKind    `gorm:"type:text;not null" json:"kind"`
	InvoiceNumber string       `gorm:"type:text" json:"invoice_number,omitempty"`
	ClientName    string       `gorm:"type:text" json:"client_name,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;index;default:CURRENT_TIMESTAMP" json:"created_at"`
	ReadAt        *time.Time   `gorm:"" json:"read_at,omitempty"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "activity_events" }

// Unread reports whether the event has not been read yet.
func (e Event) Unread() bool { return e.ReadAt == nil }
