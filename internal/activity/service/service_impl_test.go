package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/activity/domain"
	"github.com/billfold/billfold/internal/activity/hub"
	"github.com/billfold/billfold/internal/activity/repository"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Hub:   hub.NewHub(),
	})
	return svc, node
}

func TestRecordAndList(t *testing.T) {
	svc, node := newTestService(t)
	userID := node.Generate()
	ctx := userctx.WithUserID(context.Background(), userID)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, domain.RecordRequest{
			UserID:        userID,
			Kind:          domain.EventSent,
			InvoiceNumber: fmt.Sprintf("INV-%d", i+1),
			OccurredAt:    base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)
	require.False(t, resp.ReachedEnd)
	// Newest first.
	require.Equal(t, "INV-3", resp.Events[0].InvoiceNumber)

	resp, err = svc.List(ctx, domain.ListRequest{Offset: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	require.True(t, resp.ReachedEnd)
	require.Equal(t, "INV-1", resp.Events[0].InvoiceNumber)
}

func TestRecordValidation(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.RecordRequest{Kind: domain.EventSent})
	require.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Record(ctx, domain.RecordRequest{UserID: node.Generate()})
	require.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestMarkAllRead(t *testing.T) {
	svc, node := newTestService(t)
	userID := node.Generate()
	ctx := userctx.WithUserID(context.Background(), userID)

	for i := 0; i < 2; i++ {
		_, err := svc.Record(ctx, domain.RecordRequest{UserID: userID, Kind: domain.EventPaid})
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	unread, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Zero(t, unread)

	count, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	// Already read rows keep their stamp on a second pass.
	resp, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	first := resp.Events[0].ReadAt
	require.NotNil(t, first)

	_, err = svc.MarkAllRead(ctx)
	require.NoError(t, err)

	resp, err = svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Equal(t, first.Unix(), resp.Events[0].ReadAt.Unix())
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc, node := newTestService(t)
	owner := node.Generate()
	other := node.Generate()
	ownerCtx := userctx.WithUserID(context.Background(), owner)
	otherCtx := userctx.WithUserID(context.Background(), other)

	event, err := svc.Record(ownerCtx, domain.RecordRequest{UserID: owner, Kind: domain.EventDeleted})
	require.NoError(t, err)

	// Another account's delete must not touch the row.
	require.NoError(t, svc.Delete(otherCtx, event.ID.String()))
	resp, err := svc.List(ownerCtx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)

	require.NoError(t, svc.Delete(ownerCtx, event.ID.String()))
	resp, err = svc.List(ownerCtx, domain.ListRequest{})
	require.NoError(t, err)
	require.Empty(t, resp.Events)

	require.ErrorIs(t, svc.Delete(ownerCtx, "not-a-snowflake"), domain.ErrInvalidID)
}
