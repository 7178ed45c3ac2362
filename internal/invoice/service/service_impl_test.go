package service

import (
	"context"
	"testing"
	"time"

	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	activityhub "github.com/billfold/billfold/internal/activity/hub"
	activityrepo "github.com/billfold/billfold/internal/activity/repository"
	activityservice "github.com/billfold/billfold/internal/activity/service"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	clientrepo "github.com/billfold/billfold/internal/client/repository"
	"github.com/billfold/billfold/internal/clock"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice/domain"
	invoicerepo "github.com/billfold/billfold/internal/invoice/repository"
	"github.com/billfold/billfold/internal/providers/payment"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubPayment struct {
	url  string
	err  error
	last payment.CheckoutRequest
}

func (s *stubPayment) CheckoutLink(_ context.Context, req payment.CheckoutRequest) (string, error) {
	s.last = req
	return s.url, s.err
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	clk      *clock.FakeClock
	payment  *stubPayment
	activity activitydomain.Service
	ctx      context.Context
	client   clientdomain.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&domain.Invoice{},
		&domain.LineItem{},
		&activitydomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	pay := &stubPayment{url: "https://pay.example.com/c/abc"}

	activitySvc := activityservice.New(activityservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  activityrepo.Provide(),
		Hub:   activityhub.NewHub(),
	})

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Config:     config.Config{DeepLinkScheme: "billfold"},
		Clock:      clk,
		Repo:       invoicerepo.Provide(),
		ClientRepo: clientrepo.Provide(),
		Activity:   activitySvc,
		Payment:    pay,
	})

	userID := node.Generate()
	ctx := userctx.WithUserID(context.Background(), userID)

	client := clientdomain.Client{
		ID:        node.Generate(),
		UserID:    userID,
		Name:      "Acme Co",
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}
	require.NoError(t, db.Create(&client).Error)

	return &fixture{
		svc: svc, db: db, clk: clk, payment: pay,
		activity: activitySvc, ctx: ctx, client: client,
	}
}

func draft(clientID snowflake.ID) domain.Draft {
	return domain.Draft{
		ClientID: clientID.String(),
		Currency: "usd",
		Tax:      decimal.NewFromInt(2),
		Lines: []domain.DraftLine{
			{Title: "Labor", Quantity: 5, UnitPrice: decimal.NewFromInt(5)},
		},
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, "Acme Co", inv.ClientName)
	assert.Equal(t, "INV-20260310-000001", inv.Number)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(25)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(27)))
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Amount.Equal(decimal.NewFromInt(25)))

	// A second invoice advances the per-user sequence.
	second, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)
	assert.Equal(t, "INV-20260310-000002", second.Number)

	// Each creation left an activity event behind.
	feed, err := f.activity.List(f.ctx, activitydomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, feed.Events, 2)
	numbers := make([]string, 0, 2)
	for _, event := range feed.Events {
		assert.Equal(t, activitydomain.EventCreated, event.Kind)
		numbers = append(numbers, event.InvoiceNumber)
	}
	assert.Contains(t, numbers, inv.Number)
	assert.Contains(t, numbers, second.Number)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("unknown client", func(t *testing.T) {
		d := draft(snowflake.ID(999))
		_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: d})
		assert.ErrorIs(t, err, domain.ErrInvalidClient)
	})

	t.Run("bad currency", func(t *testing.T) {
		d := draft(f.client.ID)
		d.Currency = "dollars"
		_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: d})
		assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
	})

	t.Run("no lines", func(t *testing.T) {
		d := draft(f.client.ID)
		d.Lines = nil
		_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: d})
		assert.ErrorIs(t, err, domain.ErrNoLines)
	})

	t.Run("no user", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
		assert.ErrorIs(t, err, domain.ErrInvalidUser)
	})
}

func TestCoercionOnCreate(t *testing.T) {
	f := newFixture(t)

	d := draft(f.client.ID)
	d.Lines = []domain.DraftLine{
		{Description: "Zero qty", Quantity: 0, UnitPrice: decimal.NewFromInt(10)},
		{Description: "Negative price", Quantity: 2, UnitPrice: decimal.NewFromInt(-4)},
	}
	d.Tax = decimal.Zero

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: d})
	require.NoError(t, err)

	require.Len(t, inv.Items, 2)
	assert.EqualValues(t, 1, inv.Items[0].Quantity)
	assert.True(t, inv.Items[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, inv.Items[1].UnitPrice.IsZero())
	assert.True(t, inv.Items[1].Amount.IsZero())
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(10)))
}

func TestUpdateOnlyWhileEditable(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	d := draft(f.client.ID)
	d.Lines[0].UnitPrice = decimal.NewFromInt(10)
	updated, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{ID: inv.ID.String(), Draft: d})
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(50)))

	_, err = f.svc.Send(f.ctx, inv.ID.String())
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(f.ctx, inv.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{ID: inv.ID.String(), Draft: d})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestSend(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	res, err := f.svc.Send(f.ctx, inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusSent, res.Invoice.Status)
	assert.Equal(t, "https://pay.example.com/c/abc", res.CheckoutURL)
	assert.Equal(t, inv.Number, f.payment.last.Number)
	assert.Equal(t, "billfold://payment-return?invoice="+inv.ID.String(), f.payment.last.ReturnURL)
}

func TestSendWithoutProviderConfigured(t *testing.T) {
	f := newFixture(t)
	f.payment.url = ""
	f.payment.err = payment.ErrNotConfigured

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	res, err := f.svc.Send(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, res.CheckoutURL)
	assert.Equal(t, domain.InvoiceStatusSent, res.Invoice.Status)
}

func TestSendFailsWhenProviderDown(t *testing.T) {
	f := newFixture(t)
	f.payment.err = payment.ErrUnavailable

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	_, err = f.svc.Send(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, payment.ErrUnavailable)

	// Status untouched on failure.
	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, got.Status)
}

func TestMarkPaidLifecycle(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	// Drafts are not payable yet.
	_, err = f.svc.MarkPaid(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	_, err = f.svc.Send(f.ctx, inv.ID.String())
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Paying twice is rejected.
	_, err = f.svc.MarkPaid(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPayable)
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)

	d := draft(f.client.ID)
	due := f.clk.Now().Add(24 * time.Hour)
	d.DueAt = &due

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: d})
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, inv.ID.String())
	require.NoError(t, err)

	// Not yet due: sweep finds nothing.
	n, err := f.svc.SweepOverdue(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clk.Advance(48 * time.Hour)

	n, err = f.svc.SweepOverdue(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, got.Status)
}

func TestDeleteRecordsEvent(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{Draft: draft(f.client.ID)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, inv.ID.String()))

	_, err = f.svc.GetByID(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The event outlives the invoice.
	feed, err := f.activity.List(f.ctx, activitydomain.ListRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, feed.Events)
	assert.Equal(t, activitydomain.EventDeleted, feed.Events[0].Kind)
	assert.Equal(t, inv.Number, feed.Events[0].InvoiceNumber)
}
