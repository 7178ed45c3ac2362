package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	"github.com/billfold/billfold/internal/clock"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/invoice/format"
	"github.com/billfold/billfold/internal/money"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	"github.com/billfold/billfold/internal/providers/payment"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Config     config.Config
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
	Activity   activitydomain.Service
	Payment    payment.Provider
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	cfg        config.Config
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
	activity   activitydomain.Service
	payment    payment.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		cfg:        p.Config,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
		activity:   p.Activity,
		payment:    p.Payment,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	client, err := s.resolveClient(ctx, userID, req.Draft.ClientID)
	if err != nil {
		return domain.Invoice{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Draft.Currency))
	if len(currency) != 3 {
		return domain.Invoice{}, domain.ErrInvalidCurrency
	}
	if len(req.Draft.Lines) == 0 {
		return domain.Invoice{}, domain.ErrNoLines
	}

	now := s.clock.Now()

	seq, err := s.repo.NextSequence(ctx, s.db, userID)
	if err != nil {
		return domain.Invoice{}, err
	}
	number, err := format.Number(format.DefaultNumberTemplate, now, seq)
	if err != nil {
		return domain.Invoice{}, err
	}

	totals := draftTotals(req.Draft)

	invoice := domain.Invoice{
		ID:         s.genID.Generate(),
		UserID:     userID,
		ClientID:   client.ID,
		ClientName: client.Name,
		Number:     number,
		Status:     domain.InvoiceStatusDraft,
		Currency:   currency,
		Subtotal:   totals.Subtotal,
		Tax:        totals.Tax,
		Total:      totals.Total,
		Notes:      strings.TrimSpace(req.Draft.Notes),
		IssuedAt:   &now,
		DueAt:      req.Draft.DueAt,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items := s.buildItems(userID, invoice.ID, req.Draft.Lines, now)

	if err := s.repo.Insert(ctx, s.db, &invoice, items); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Items = items

	s.record(ctx, invoice, activitydomain.EventCreated)

	return invoice, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice.Status != domain.InvoiceStatusDraft && invoice.Status != domain.InvoiceStatusOpen {
		return domain.Invoice{}, domain.ErrNotEditable
	}

	client, err := s.resolveClient(ctx, userID, req.Draft.ClientID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if len(req.Draft.Lines) == 0 {
		return domain.Invoice{}, domain.ErrNoLines
	}

	now := s.clock.Now()
	totals := draftTotals(req.Draft)

	invoice.ClientID = client.ID
	invoice.ClientName = client.Name
	invoice.Subtotal = totals.Subtotal
	invoice.Tax = totals.Tax
	invoice.Total = totals.Total
	invoice.Notes = strings.TrimSpace(req.Draft.Notes)
	invoice.DueAt = req.Draft.DueAt
	invoice.UpdatedAt = now
	if currency := strings.ToUpper(strings.TrimSpace(req.Draft.Currency)); len(currency) == 3 {
		invoice.Currency = currency
	}

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	items := s.buildItems(userID, invoice.ID, req.Draft.Lines, now)
	if err := s.repo.ReplaceItems(ctx, s.db, invoice.ID, items); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Items = items

	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidUser
	}

	filter := domain.ListInvoiceFilter{}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = domain.InvoiceStatus(status)
	}
	if rawClient := strings.TrimSpace(req.ClientID); rawClient != "" {
		clientID, err := snowflake.ParseString(rawClient)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	rows, err := s.repo.List(ctx, s.db, userID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(inv *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		invoices = append(invoices, *row)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}

	items, err := s.repo.FindItems(ctx, s.db, userID, invoice.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice.Items = items

	return *invoice, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, userID, invoice.ID); err != nil {
		return err
	}

	s.record(ctx, *invoice, activitydomain.EventDeleted)

	return nil
}

// Send issues a checkout link and marks the invoice sent. A provider
// that is simply not configured degrades to sending without a link;
// a configured but failing provider aborts the send.
func (s *Service) Send(ctx context.Context, rawID string) (domain.SendResult, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.SendResult{}, domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return domain.SendResult{}, err
	}
	if invoice.Status.Terminal() {
		return domain.SendResult{}, domain.ErrNotEditable
	}

	checkoutURL, err := s.payment.CheckoutLink(ctx, payment.CheckoutRequest{
		InvoiceID:  invoice.ID,
		Number:     invoice.Number,
		Amount:     invoice.Total,
		Currency:   invoice.Currency,
		ClientName: invoice.ClientName,
		ReturnURL:  fmt.Sprintf("%s://payment-return?invoice=%s", s.cfg.DeepLinkScheme, invoice.ID),
	})
	if err != nil {
		if err != payment.ErrNotConfigured {
			return domain.SendResult{}, err
		}
		obslogger.WithContext(ctx, s.log).Info("sending without checkout link")
		checkoutURL = ""
	}

	invoice.Status = domain.InvoiceStatusSent
	invoice.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.SendResult{}, err
	}

	s.record(ctx, *invoice, activitydomain.EventSent)

	return domain.SendResult{Invoice: *invoice, CheckoutURL: checkoutURL}, nil
}

func (s *Service) MarkPaid(ctx context.Context, rawID string) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if !invoice.Status.Payable() {
		return domain.Invoice{}, domain.ErrNotPayable
	}

	now := s.clock.Now()
	invoice.Status = domain.InvoiceStatusPaid
	invoice.PaidAt = &now
	invoice.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.record(ctx, *invoice, activitydomain.EventPaid)

	return *invoice, nil
}

// MarkOpened records that the payer viewed the invoice. Repeated or
// late opens on settled invoices are ignored rather than rejected.
func (s *Service) MarkOpened(ctx context.Context, rawID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return err
	}
	if invoice.Status.Terminal() {
		return nil
	}

	s.record(ctx, *invoice, activitydomain.EventOpened)

	return nil
}

func (s *Service) Archive(ctx context.Context, rawID string) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoice, err := s.find(ctx, userID, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice.Status == domain.InvoiceStatusArchived {
		return *invoice, nil
	}

	invoice.Status = domain.InvoiceStatusArchived
	invoice.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.record(ctx, *invoice, activitydomain.EventArchived)

	return *invoice, nil
}

// SweepOverdue flips every open invoice past its due date and records
// an overdue event per invoice flipped.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, domain.ErrInvalidUser
	}

	flipped, err := s.repo.MarkOverdue(ctx, s.db, userID, s.clock.Now())
	if err != nil {
		return 0, err
	}

	for _, invoice := range flipped {
		if invoice == nil {
			continue
		}
		s.record(ctx, *invoice, activitydomain.EventOverdue)
	}

	return len(flipped), nil
}

func (s *Service) find(ctx context.Context, userID snowflake.ID, rawID string) (*domain.Invoice, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) resolveClient(ctx context.Context, userID snowflake.ID, rawClientID string) (*clientdomain.Client, error) {
	clientID, err := snowflake.ParseString(strings.TrimSpace(rawClientID))
	if err != nil {
		return nil, domain.ErrInvalidClient
	}

	client, err := s.clientRepo.FindByID(ctx, s.db, userID, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrInvalidClient
	}
	return client, nil
}

func (s *Service) buildItems(userID, invoiceID snowflake.ID, lines []domain.DraftLine, now time.Time) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(lines))
	for i, line := range lines {
		var title *string
		if trimmed := strings.TrimSpace(line.Title); trimmed != "" {
			title = &trimmed
		}
		items = append(items, domain.LineItem{
			ID:          s.genID.Generate(),
			UserID:      userID,
			InvoiceID:   invoiceID,
			Position:    i,
			Title:       title,
			Description: strings.TrimSpace(line.Description),
			Quantity:    money.CoerceQuantity(line.Quantity),
			UnitPrice:   money.CoerceUnitPrice(line.UnitPrice),
			Amount:      money.LineAmount(line.Quantity, line.UnitPrice),
			CreatedAt:   now,
		})
	}
	return items
}

// record is best-effort: a failed activity write never fails the
// invoice operation it annotates.
func (s *Service) record(ctx context.Context, invoice domain.Invoice, kind activitydomain.EventKind) {
	invoiceID := invoice.ID
	_, err := s.activity.Record(ctx, activitydomain.RecordRequest{
		UserID:        invoice.UserID,
		InvoiceID:     &invoiceID,
		Kind:          kind,
		InvoiceNumber: invoice.Number,
		ClientName:    invoice.ClientName,
		OccurredAt:    s.clock.Now(),
	})
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("activity record failed",
			zap.String("kind", string(kind)),
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func draftTotals(draft domain.Draft) money.Totals {
	lines := make([]money.Line, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		lines = append(lines, money.Line{Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	return money.Sum(lines, draft.Tax)
}
