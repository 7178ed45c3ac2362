package server

import (
	"net/http"
	"strings"

	authdomain "github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/gate"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  authdomain.User `json:"user"`
	State gate.State      `json:"state"`
}

func (s *Server) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authSvc.SignUp(c.Request.Context(), authdomain.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Issue(c, result.SessionToken)
	statusOK(c, authResponse{User: result.User, State: gate.Resolve(&result.User)})
}

func (s *Server) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authSvc.SignIn(c.Request.Context(), authdomain.SignInRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Issue(c, result.SessionToken)
	statusOK(c, authResponse{User: result.User, State: gate.Resolve(&result.User)})
}

func (s *Server) SignOut(c *gin.Context) {
	if token := s.sessions.Token(c); token != "" {
		if err := s.authSvc.SignOut(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	statusOK(c, gin.H{"state": gate.StateSignedOut})
}

// Me reports the account and the routing state the session resolves
// to. A missing or expired session is a signed-out answer here, not an
// error.
func (s *Server) Me(c *gin.Context) {
	token := s.sessions.Token(c)
	if token == "" {
		statusOK(c, gin.H{"state": gate.StateSignedOut})
		return
	}

	user, err := s.authSvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		statusOK(c, gin.H{"state": gate.StateSignedOut})
		return
	}

	statusOK(c, authResponse{User: user, State: gate.Resolve(&user)})
}

func (s *Server) CompleteOnboarding(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authSvc.CompleteOnboarding(c.Request.Context(), req.DisplayName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, authResponse{User: user, State: gate.Resolve(&user)})
}

// ConfirmEmail consumes the token from the confirmation link, then
// bounces to the deep link that reopens the client app.
func (s *Server) ConfirmEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if _, err := s.authSvc.ConfirmEmail(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, s.cfg.DeepLinkScheme+"://email-confirmed")
}
