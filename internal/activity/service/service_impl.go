package service

import (
	"context"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/activity/domain"
	"github.com/billfold/billfold/internal/activity/hub"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Hub   *hub.Hub
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	hub   *hub.Hub
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activity.service"),
		genID: p.GenID,
		repo:  p.Repo,
		hub:   p.Hub,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.Event, error) {
	if req.UserID == 0 {
		return domain.Event{}, domain.ErrInvalidUser
	}
	if req.Kind == "" {
		return domain.Event{}, domain.ErrInvalidKind
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	event := domain.Event{
		ID:            s.genID.Generate(),
		ULID:          ulid.MustNew(ulid.Timestamp(occurredAt), ulid.DefaultEntropy()).String(),
		UserID:        req.UserID,
		InvoiceID:     req.InvoiceID,
		Kind:          req.Kind,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		ClientName:    strings.TrimSpace(req.ClientName),
		CreatedAt:     occurredAt,
	}

	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, event)

	return event, nil
}

// publish is best-effort: a failed unread recount never fails the write.
func (s *Service) publish(ctx context.Context, event domain.Event) {
	unread, err := s.repo.UnreadCount(ctx, s.db, event.UserID)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Debug("unread recount failed", zap.Error(err))
		unread = 0
	}
	s.hub.Publish(event.UserID.String(), hub.Change{
		Kind:          string(event.Kind),
		EventULID:     event.ULID,
		InvoiceNumber: event.InvoiceNumber,
		ClientName:    event.ClientName,
		UnreadCount:   unread,
		OccurredAt:    event.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.ListPage(ctx, s.db, userID, offset, pageSize)
	if err != nil {
		return domain.ListResponse{}, err
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		events = append(events, *row)
	}

	return domain.ListResponse{
		Events:     events,
		ReachedEnd: len(events) < pageSize,
	}, nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, domain.ErrInvalidUser
	}

	stamped, err := s.repo.MarkAllRead(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}

	if stamped > 0 {
		s.hub.Publish(userID.String(), hub.Change{
			Kind:        "read",
			UnreadCount: 0,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}

	return 0, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return domain.ErrInvalidID
	}

	return s.repo.Delete(ctx, s.db, userID, id)
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, domain.ErrInvalidUser
	}
	return s.repo.UnreadCount(ctx, s.db, userID)
}
