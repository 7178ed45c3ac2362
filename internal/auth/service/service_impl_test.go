package service

import (
	"context"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/repository"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestSignUpAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, domain.SignUpRequest{
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", res.User.Email)
	require.NotEmpty(t, res.SessionToken)
	require.NotEmpty(t, res.User.ConfirmToken)
	require.Nil(t, res.User.EmailConfirmedAt)
	require.False(t, res.User.Onboarded())

	user, err := svc.Authenticate(ctx, res.SessionToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, user.ID)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "not-an-email", Password: "long enough"})
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.SignUp(ctx, domain.SignUpRequest{Email: "a@b.com", Password: "short"})
	require.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "bob@example.com", Password: "strong enough"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, domain.SignUpRequest{Email: "BOB@example.com", Password: "strong enough"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "carol@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, domain.SignInRequest{Email: "carol@example.com", Password: "wrong horse"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Unknown accounts fail the same way as bad passwords.
	_, err = svc.SignIn(ctx, domain.SignInRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "dave@example.com", Password: "strong enough"})
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, res.SessionToken))

	_, err = svc.Authenticate(ctx, res.SessionToken)
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "erin@example.com", Password: "strong enough"})
	require.NoError(t, err)

	// Age the session past its lifetime.
	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Model(&domain.Session{}).
		Where("token = ?", res.SessionToken).
		Update("expires_at", expired).Error)

	_, err = svc.Authenticate(ctx, res.SessionToken)
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	// The expired row is reaped, so a retry reads as no session.
	_, err = svc.Authenticate(ctx, res.SessionToken)
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestCompleteOnboarding(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "fay@example.com", Password: "strong enough"})
	require.NoError(t, err)

	userCtx := userctx.WithUserID(ctx, res.User.ID)

	_, err = svc.CompleteOnboarding(userCtx, "   ")
	require.ErrorIs(t, err, domain.ErrInvalidName)

	user, err := svc.CompleteOnboarding(userCtx, "Fay Studio")
	require.NoError(t, err)
	require.True(t, user.Onboarded())
	require.Equal(t, "Fay Studio", user.DisplayName)
}

func TestConfirmEmailConsumesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "gil@example.com", Password: "strong enough"})
	require.NoError(t, err)

	user, err := svc.ConfirmEmail(ctx, res.User.ConfirmToken)
	require.NoError(t, err)
	require.NotNil(t, user.EmailConfirmedAt)
	require.Empty(t, user.ConfirmToken)

	// A consumed token no longer resolves.
	_, err = svc.ConfirmEmail(ctx, res.User.ConfirmToken)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}
