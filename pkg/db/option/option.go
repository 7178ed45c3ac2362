// Package option applies common query modifiers to gorm statements.
package option

import (
	"strconv"
	"time"

	"github.com/billfold/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination decodes the page token, seeks past the cursor and
// limits the statement to page size + 1 so the caller can detect a
// further page.
func ApplyPagination(page pagination.Pagination) Option {
	return &paginationOption{page: page}
}

func (o *paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 250 {
		size = 250
	}

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor.CreatedAt != "" && cursor.ID != "" {
			// Compare typed values so the dialect serializes the
			// cursor the same way it stored the column.
			ts, terr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			id, ierr := strconv.ParseInt(cursor.ID, 10, 64)
			if terr == nil && ierr == nil {
				stmt = stmt.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					ts, ts, id,
				)
			}
		}
	}

	return stmt.Limit(size + 1)
}
