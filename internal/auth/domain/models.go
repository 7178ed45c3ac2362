// Package domain contains account and session models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account. DisplayName stays empty until onboarding
// completes; EmailConfirmedAt stays nil until the confirmation deep
// link is followed.
type User struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Email            string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash     string       `gorm:"type:text;not null" json:"-"`
	DisplayName      string       `gorm:"type:text" json:"display_name,omitempty"`
	ConfirmToken     string       `gorm:"type:text;index" json:"-"`
	EmailConfirmedAt *time.Time   `gorm:"" json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Onboarded reports whether the account has finished initial setup.
func (u User) Onboarded() bool { return u.DisplayName != "" }

// Session is a server-side login session keyed by an opaque token.
type Session struct {
	Token     string       `gorm:"primaryKey;type:text" json:"-"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time    `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Expired reports whether the session is past its lifetime.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
