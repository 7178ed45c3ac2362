// Package domain contains per-account branding used on rendered
// documents.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Branding is one account's document identity. Empty fields fall back
// to the render defaults at read time; LogoURL carries a cache-busting
// suffix so stale copies are never served after a re-upload.
type Branding struct {
	UserID       snowflake.ID `gorm:"primaryKey" json:"user_id"`
	BusinessName string       `gorm:"type:text" json:"business_name,omitempty"`
	Tagline      string       `gorm:"type:text" json:"tagline,omitempty"`
	AccentColor  string       `gorm:"type:text" json:"accent_color,omitempty"`
	ThankYouText string       `gorm:"type:text" json:"thank_you_text,omitempty"`
	LogoPath     string       `gorm:"type:text" json:"-"`
	LogoURL      string       `gorm:"type:text" json:"logo_url,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Branding) TableName() string { return "brandings" }
