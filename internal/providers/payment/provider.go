// Package payment calls the external payment-platform function that
// issues checkout links. Links are never minted locally.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/billfold/billfold/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("payment_provider_not_configured")
	ErrUnavailable   = errors.New("payment_provider_unavailable")
	ErrRejected      = errors.New("payment_provider_rejected")
)

// CheckoutRequest describes the invoice a link is requested for.
type CheckoutRequest struct {
	InvoiceID  snowflake.ID    `json:"invoice_id"`
	Number     string          `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ClientName string          `json:"client_name,omitempty"`
	// ReturnURL routes the payer back into the app via the deep link
	// scheme once checkout completes.
	ReturnURL string `json:"return_url,omitempty"`
}

// Provider issues checkout links.
type Provider interface {
	CheckoutLink(ctx context.Context, req CheckoutRequest) (string, error)
}

type httpProvider struct {
	url    string
	token  string
	client *http.Client
	log    *zap.Logger
}

func NewHTTPProvider(cfg config.Config, log *zap.Logger) Provider {
	return &httpProvider{
		url:    cfg.PaymentFunctionURL,
		token:  cfg.PaymentAuthToken,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.Named("payment.provider"),
	}
}

func (p *httpProvider) CheckoutLink(ctx context.Context, req CheckoutRequest) (string, error) {
	if p.url == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.log.Warn("checkout function unreachable", zap.Error(err))
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		p.log.Warn("checkout function rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: empty url", ErrRejected)
	}

	return out.URL, nil
}
