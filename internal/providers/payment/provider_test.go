package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/billfold/billfold/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckoutLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "INV-20260310-000001", req.Number)
		assert.Equal(t, "USD", req.Currency)

		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example.com/c/abc"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.Config{
		PaymentFunctionURL: srv.URL,
		PaymentAuthToken:   "secret",
	}, zap.NewNop())

	url, err := p.CheckoutLink(context.Background(), CheckoutRequest{
		InvoiceID: snowflake.ID(1),
		Number:    "INV-20260310-000001",
		Amount:    decimal.NewFromInt(27),
		Currency:  "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/c/abc", url)
}

func TestCheckoutLinkErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		p := NewHTTPProvider(config.Config{}, zap.NewNop())
		_, err := p.CheckoutLink(context.Background(), CheckoutRequest{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewHTTPProvider(config.Config{PaymentFunctionURL: srv.URL}, zap.NewNop())
		_, err := p.CheckoutLink(context.Background(), CheckoutRequest{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("rejection keeps status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		p := NewHTTPProvider(config.Config{PaymentFunctionURL: srv.URL}, zap.NewNop())
		_, err := p.CheckoutLink(context.Background(), CheckoutRequest{})
		assert.ErrorIs(t, err, ErrRejected)
	})
}
