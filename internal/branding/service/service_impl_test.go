package service

import (
	"context"
	"testing"

	"github.com/billfold/billfold/internal/branding/domain"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memRepo struct {
	rows  map[snowflake.ID]domain.Branding
	finds int
}

func (m *memRepo) Upsert(_ context.Context, _ *gorm.DB, branding *domain.Branding) error {
	m.rows[branding.UserID] = *branding
	return nil
}

func (m *memRepo) FindByUser(_ context.Context, _ *gorm.DB, userID snowflake.ID) (*domain.Branding, error) {
	m.finds++
	row, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func newService(t *testing.T, repo domain.Repository) *Service {
	t.Helper()
	svc := New(Params{
		Log:      zap.NewNop(),
		Config:   config.Config{StorageRoot: t.TempDir(), PublicBaseURL: "http://localhost:8080"},
		Defaults: config.NewStaticRenderConfigHolder(config.DefaultRenderConfig()),
		Repo:     repo,
	})
	return svc.(*Service)
}

func TestGetAppliesDefaults(t *testing.T) {
	userID := snowflake.ID(42)
	repo := &memRepo{rows: map[snowflake.ID]domain.Branding{
		userID: {UserID: userID, BusinessName: "Acme Plumbing"},
	}}
	svc := newService(t, repo)
	ctx := userctx.WithUserID(context.Background(), userID)

	resolved, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Acme Plumbing", resolved.BusinessName)
	// Unset fields fall back to render defaults.
	assert.Equal(t, "#2563EB", resolved.AccentColor)
	assert.Equal(t, "Thank you for your business!", resolved.ThankYouText)
}

func TestGetWithoutRowUsesAllDefaults(t *testing.T) {
	svc := newService(t, &memRepo{rows: map[snowflake.ID]domain.Branding{}})
	ctx := userctx.WithUserID(context.Background(), snowflake.ID(7))

	resolved, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Your Business", resolved.BusinessName)
	assert.Empty(t, resolved.LogoURL)
}

func TestCacheAndInvalidate(t *testing.T) {
	userID := snowflake.ID(42)
	repo := &memRepo{rows: map[snowflake.ID]domain.Branding{
		userID: {UserID: userID, BusinessName: "Acme"},
	}}
	svc := newService(t, repo)
	ctx := userctx.WithUserID(context.Background(), userID)

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.finds, "second read served from cache")

	svc.Invalidate(userID)
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.finds, "invalidate forces a reload")
}

func TestUpdateRejectsBadAccent(t *testing.T) {
	svc := newService(t, &memRepo{rows: map[snowflake.ID]domain.Branding{}})
	ctx := userctx.WithUserID(context.Background(), snowflake.ID(1))

	_, err := svc.Update(ctx, domain.UpdateBrandingRequest{AccentColor: "blue"})
	assert.ErrorIs(t, err, domain.ErrInvalidColor)
}

func TestRequiresUser(t *testing.T) {
	svc := newService(t, &memRepo{rows: map[snowflake.ID]domain.Branding{}})

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}
