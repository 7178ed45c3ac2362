package domain

import (
	"context"
	"errors"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by sign-up and sign-in: the account plus the
// session token the transport layer turns into a cookie.
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"-"`
}

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (AuthResult, error)
	SignIn(ctx context.Context, req SignInRequest) (AuthResult, error)
	SignOut(ctx context.Context, sessionToken string) error
	// Authenticate resolves a session token to its account.
	Authenticate(ctx context.Context, sessionToken string) (User, error)
	CurrentUser(ctx context.Context) (User, error)
	// CompleteOnboarding sets the display name, moving the account out
	// of the onboarding state.
	CompleteOnboarding(ctx context.Context, displayName string) (User, error)
	// ConfirmEmail consumes a confirmation token from the deep link.
	ConfirmEmail(ctx context.Context, token string) (User, error)
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrEmailTaken         = errors.New("user_already_registered")
	ErrInvalidCredentials = errors.New("invalid_login_credentials")
	ErrNoSession          = errors.New("no_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidName        = errors.New("invalid_display_name")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrNotFound           = errors.New("not_found")
)
