package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"

	authdomain "github.com/billfold/billfold/internal/auth/domain"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/providers/payment"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", invoicedomain.ErrNoLines, http.StatusBadRequest, "validation_error"},
		{"wrapped validation", fmt.Errorf("create: %w", clientdomain.ErrInvalidName), http.StatusBadRequest, "validation_error"},
		{"not found", invoicedomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unauthorized", authdomain.ErrNoSession, http.StatusUnauthorized, "unauthorized"},
		{"bad credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"email taken", authdomain.ErrEmailTaken, http.StatusConflict, "conflict"},
		{"lifecycle conflict", invoicedomain.ErrNotEditable, http.StatusConflict, "conflict"},
		{"throttled", ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{"provider down", payment.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"provider rejected", payment.ErrRejected, http.StatusBadRequest, "validation_error"},
		{"offline", syscall.ECONNREFUSED, http.StatusServiceUnavailable, "offline"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorValidationDetails(t *testing.T) {
	_, payload := mapError(fmt.Errorf("create: %w", invoicedomain.ErrNoLines))
	require.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	require.Equal(t, "lines", payload.Errors[0].Field)
	require.Equal(t, "no_line_items", payload.Errors[0].Code)

	_, payload = mapError(clientdomain.ErrInvalidName)
	require.Len(t, payload.Errors, 1)
	require.Equal(t, "name", payload.Errors[0].Field)
	require.Equal(t, "invalid_name", payload.Errors[0].Code)
}

func TestIsOffline(t *testing.T) {
	require.True(t, IsOffline(syscall.ECONNREFUSED))
	require.True(t, IsOffline(fmt.Errorf("send invoice: %w", syscall.ETIMEDOUT)))
	require.True(t, IsOffline(&url.Error{Op: "Get", URL: "http://example.com", Err: context.DeadlineExceeded}))
	require.True(t, IsOffline(&net.DNSError{Err: "no such host", Name: "example.com", IsNotFound: true}))

	require.False(t, IsOffline(nil))
	require.False(t, IsOffline(errors.New("boom")))
	require.False(t, IsOffline(invoicedomain.ErrNotFound))
}

func TestFriendlyAuthMessage(t *testing.T) {
	require.Equal(t, "Incorrect email or password.",
		FriendlyAuthMessage("Sign in failed", authdomain.ErrInvalidCredentials))
	require.Equal(t, "An account with this email already exists.",
		FriendlyAuthMessage("Sign up failed", authdomain.ErrEmailTaken))
	require.Equal(t, "Your session has expired. Please sign in again.",
		FriendlyAuthMessage("Sign in failed", authdomain.ErrSessionExpired))

	// Wrapped errors still match on the substring.
	wrapped := fmt.Errorf("auth: %w", authdomain.ErrInvalidCredentials)
	require.Equal(t, "Incorrect email or password.", FriendlyAuthMessage("Sign in failed", wrapped))

	require.Equal(t, "Sign in failed: boom", FriendlyAuthMessage("Sign in failed", errors.New("boom")))
	require.Equal(t, "Sign in failed", FriendlyAuthMessage("Sign in failed", nil))
}
