package server

import (
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/userctx"
	"github.com/gin-gonic/gin"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie to an account and threads
// the user id through the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.sessions.Token(c)
		if strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, user.ID.String())
		c.Request = c.Request.WithContext(userctx.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// TapThrottle rejects a repeated submission of the same action inside
// the tap interval. Keyed per user when signed in, per remote address
// otherwise.
func (s *Server) TapThrottle(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetString(contextUserIDKey)
		if actor == "" {
			actor = c.ClientIP()
		}
		if !s.tap.Allow(actor + ":" + action + ":" + c.Param("id")) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// BucketLimit applies the shared redis token bucket when configured.
func (s *Server) BucketLimit(key string, rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.bucket == nil {
			c.Next()
			return
		}
		res, err := s.bucket.Allow(c.Request.Context(), key+":"+c.ClientIP(), rate, burst)
		if err != nil {
			// A broken limiter must not take the API down.
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", res.RetryAfter.String())
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func statusOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}
