package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/password"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/billfold/billfold/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionTTL is how long a login session stays valid.
const SessionTTL = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) SignUp(ctx context.Context, req domain.SignUpRequest) (domain.AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.AuthResult{}, domain.ErrInvalidEmail
	}
	if len(req.Password) < password.MinLength {
		return domain.AuthResult{}, domain.ErrWeakPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return domain.AuthResult{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hash,
		ConfirmToken: uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.InsertUser(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.AuthResult{}, domain.ErrEmailTaken
		}
		return domain.AuthResult{}, err
	}

	token, err := s.openSession(ctx, user.ID, now)
	if err != nil {
		return domain.AuthResult{}, err
	}

	obslogger.WithContext(ctx, s.log).Info("account created",
		zap.String("user_id", user.ID.String()),
	)

	return domain.AuthResult{User: user, SessionToken: token}, nil
}

func (s *Service) SignIn(ctx context.Context, req domain.SignInRequest) (domain.AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if user == nil || !password.Verify(user.PasswordHash, req.Password) {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID, time.Now().UTC())
	if err != nil {
		return domain.AuthResult{}, err
	}

	return domain.AuthResult{User: *user, SessionToken: token}, nil
}

func (s *Service) SignOut(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, s.db, sessionToken)
}

func (s *Service) Authenticate(ctx context.Context, sessionToken string) (domain.User, error) {
	if sessionToken == "" {
		return domain.User{}, domain.ErrNoSession
	}

	session, err := s.repo.FindSession(ctx, s.db, sessionToken)
	if err != nil {
		return domain.User{}, err
	}
	if session == nil {
		return domain.User{}, domain.ErrNoSession
	}
	if session.Expired(time.Now().UTC()) {
		// Expired rows are reaped lazily here and in bulk by the sweep.
		_ = s.repo.DeleteSession(ctx, s.db, sessionToken)
		return domain.User{}, domain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, s.db, session.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNoSession
	}

	return *user, nil
}

func (s *Service) CurrentUser(ctx context.Context) (domain.User, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.User{}, domain.ErrInvalidUser
	}

	user, err := s.repo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	return *user, nil
}

func (s *Service) CompleteOnboarding(ctx context.Context, displayName string) (domain.User, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.User{}, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		return domain.User{}, domain.ErrInvalidName
	}

	user, err := s.repo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	user.DisplayName = name
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, s.db, user); err != nil {
		return domain.User{}, err
	}

	return *user, nil
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrInvalidToken
	}

	user, err := s.repo.FindUserByConfirmToken(ctx, s.db, token)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrInvalidToken
	}

	now := time.Now().UTC()
	user.ConfirmToken = ""
	user.EmailConfirmedAt = &now
	user.UpdatedAt = now

	if err := s.repo.UpdateUser(ctx, s.db, user); err != nil {
		return domain.User{}, err
	}

	return *user, nil
}

func (s *Service) openSession(ctx context.Context, userID snowflake.ID, now time.Time) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	session := domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return "", err
	}

	return token, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
