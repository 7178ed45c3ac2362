package repository

import (
	"context"

	"github.com/billfold/billfold/internal/branding/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, branding *domain.Branding) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"business_name", "tagline", "accent_color", "thank_you_text",
				"logo_path", "logo_url", "updated_at",
			}),
		}).
		Create(branding).Error
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Branding, error) {
	var branding domain.Branding
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&branding).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &branding, nil
}
