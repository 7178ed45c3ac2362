package domain

import (
	"context"
	"time"

	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status   InvoiceStatus
	ClientID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice, items []LineItem) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []LineItem) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Invoice, error)
	FindItems(ctx context.Context, db *gorm.DB, userID, invoiceID snowflake.ID) ([]LineItem, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
	NextSequence(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) ([]*Invoice, error)
}
