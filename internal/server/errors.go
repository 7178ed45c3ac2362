package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	brandingdomain "github.com/billfold/billfold/internal/branding/domain"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/providers/payment"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case IsOffline(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "offline",
			Message: "You appear to be offline. Check your connection and try again.",
		}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrNoSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: FriendlyAuthMessage("Sign in failed", err),
		}

	case errors.Is(err, authdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: FriendlyAuthMessage("Sign up failed", err),
		}

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "Too many attempts. Please wait a moment and try again.",
		}

	case errors.Is(err, invoicedomain.ErrNotEditable),
		errors.Is(err, invoicedomain.ErrNotPayable):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case isValidationError(err):
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, payment.ErrUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidName),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, clientdomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidClient),
		errors.Is(err, invoicedomain.ErrInvalidCurrency),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrNoLines),
		errors.Is(err, activitydomain.ErrInvalidID),
		errors.Is(err, activitydomain.ErrInvalidKind),
		errors.Is(err, brandingdomain.ErrInvalidImage),
		errors.Is(err, brandingdomain.ErrInvalidColor),
		errors.Is(err, payment.ErrRejected):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	// Sentinel errors already carry their snake_case code.
	for unwrapped := err; unwrapped != nil; unwrapped = errors.Unwrap(unwrapped) {
		err = unwrapped
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "no_line_items":
		return "lines"
	case "payment_provider_rejected":
		return "invoice"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "weak_password":
		return "Password must be at least 8 characters."
	case "no_line_items":
		return "An invoice needs at least one line item."
	case "invalid_accent_color":
		return "Accent color must be a #RRGGBB value."
	case "payment_provider_rejected":
		return "The payment platform rejected this invoice."
	default:
		return "invalid value"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, authdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// IsOffline walks the error chain looking for connectivity failures so
// they surface as a single friendly condition rather than a raw
// transport error.
func IsOffline(err error) bool {
	for err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) ||
			errors.Is(err, syscall.ECONNRESET) ||
			errors.Is(err, syscall.EHOSTUNREACH) ||
			errors.Is(err, syscall.ENETUNREACH) ||
			errors.Is(err, syscall.ETIMEDOUT) ||
			errors.Is(err, context.DeadlineExceeded) {
			return true
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return true
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}

		err = errors.Unwrap(err)
	}
	return false
}

// authMessages maps known auth failure substrings to user-facing
// strings. Unmatched errors fall back to "<context>: <raw message>".
var authMessages = []struct {
	substring string
	message   string
}{
	{"invalid_login_credentials", "Incorrect email or password."},
	{"invalid login credentials", "Incorrect email or password."},
	{"user_already_registered", "An account with this email already exists."},
	{"user already registered", "An account with this email already exists."},
	{"weak_password", "Password must be at least 8 characters."},
	{"rate limit", "Too many attempts. Please wait a moment and try again."},
	{"too_many_requests", "Too many attempts. Please wait a moment and try again."},
	{"email not confirmed", "Please confirm your email address first."},
	{"session_expired", "Your session has expired. Please sign in again."},
	{"no_session", "Please sign in."},
}

func FriendlyAuthMessage(contextLabel string, err error) string {
	if err == nil {
		return contextLabel
	}
	raw := strings.ToLower(err.Error())
	for _, entry := range authMessages {
		if strings.Contains(raw, entry.substring) {
			return entry.message
		}
	}
	return fmt.Sprintf("%s: %s", contextLabel, err.Error())
}
