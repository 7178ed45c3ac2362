package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	// ListPage returns events newest first, limit+offset paged.
	ListPage(ctx context.Context, db *gorm.DB, userID snowflake.ID, offset, limit int) ([]*Event, error)
	MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
	UnreadCount(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
}
