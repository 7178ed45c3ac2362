package domain

import (
	"context"
	"errors"
)

type UpdateBrandingRequest struct {
	BusinessName string `json:"business_name"`
	Tagline      string `json:"tagline"`
	AccentColor  string `json:"accent_color"`
	ThankYouText string `json:"thank_you_text"`
}

// Resolved is branding with render defaults already applied. This is
// what document rendering consumes.
type Resolved struct {
	BusinessName string `json:"business_name"`
	Tagline      string `json:"tagline,omitempty"`
	AccentColor  string `json:"accent_color"`
	ThankYouText string `json:"thank_you_text"`
	DateFormat   string `json:"date_format"`
	LogoURL      string `json:"logo_url,omitempty"`
	LogoPath     string `json:"-"`
}

type Service interface {
	// Get resolves the caller's branding with defaults applied.
	Get(ctx context.Context) (Resolved, error)
	Update(ctx context.Context, req UpdateBrandingRequest) (Resolved, error)
	// UploadLogo resizes and stores a logo image, returning the new
	// public URL.
	UploadLogo(ctx context.Context, filename string, data []byte) (string, error)
	// LogoBytes loads the caller's stored logo, or fetches a remote
	// one best-effort. A missing or unreachable logo returns nil with
	// no error.
	LogoBytes(ctx context.Context) ([]byte, error)
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidImage = errors.New("invalid_image")
	ErrInvalidColor = errors.New("invalid_accent_color")
)
