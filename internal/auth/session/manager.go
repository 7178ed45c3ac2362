// Package session handles the login cookie on the HTTP edge.
package session

import (
	"net/http"

	"github.com/billfold/billfold/internal/auth/service"
	"github.com/billfold/billfold/internal/config"
	"github.com/gin-gonic/gin"
)

// CookieName is the login session cookie.
const CookieName = "billfold_session"

// Manager reads and writes the session cookie.
type Manager struct {
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{secure: cfg.AuthCookieSecure}
}

// Token returns the session token from the request, or "".
func (m *Manager) Token(c *gin.Context) string {
	token, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return token
}

// Issue sets the session cookie.
func (m *Manager) Issue(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(service.SessionTTL.Seconds()), "/", "", m.secure, true)
}

// Clear expires the session cookie.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
}
