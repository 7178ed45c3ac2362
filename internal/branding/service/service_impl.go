package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/branding/domain"
	"github.com/billfold/billfold/internal/config"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/bwmarrin/snowflake"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// logoMaxEdge bounds stored logos; documents never need more.
const logoMaxEdge = 512

var accentColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	Defaults *config.RenderConfigHolder
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	defaults *config.RenderConfigHolder
	repo     domain.Repository
	http     *http.Client

	mu    sync.RWMutex
	cache map[snowflake.ID]domain.Branding
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("branding.service"),
		cfg:      p.Config,
		defaults: p.Defaults,
		repo:     p.Repo,
		http:     &http.Client{Timeout: p.Config.LogoFetchTimeout},
		cache:    map[snowflake.ID]domain.Branding{},
	}
}

func (s *Service) Get(ctx context.Context) (domain.Resolved, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Resolved{}, domain.ErrInvalidUser
	}

	branding, err := s.load(ctx, userID)
	if err != nil {
		return domain.Resolved{}, err
	}

	return s.resolve(branding), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBrandingRequest) (domain.Resolved, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Resolved{}, domain.ErrInvalidUser
	}

	accent := strings.TrimSpace(req.AccentColor)
	if accent != "" && !accentColorPattern.MatchString(accent) {
		return domain.Resolved{}, domain.ErrInvalidColor
	}

	existing, err := s.load(ctx, userID)
	if err != nil {
		return domain.Resolved{}, err
	}

	now := time.Now().UTC()
	branding := domain.Branding{
		UserID:       userID,
		BusinessName: strings.TrimSpace(req.BusinessName),
		Tagline:      strings.TrimSpace(req.Tagline),
		AccentColor:  accent,
		ThankYouText: strings.TrimSpace(req.ThankYouText),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		branding.LogoPath = existing.LogoPath
		branding.LogoURL = existing.LogoURL
		branding.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, s.db, &branding); err != nil {
		return domain.Resolved{}, err
	}
	s.Invalidate(userID)

	return s.resolve(&branding), nil
}

func (s *Service) UploadLogo(ctx context.Context, filename string, data []byte) (string, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return "", domain.ErrInvalidUser
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", domain.ErrInvalidImage
	}
	img = imaging.Fit(img, logoMaxEdge, logoMaxEdge, imaging.Lanczos)

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := slug.Make(base)
	if name == "" {
		name = "logo"
	}
	// The uuid suffix busts any cached copy of the previous logo.
	relPath := filepath.Join("logos", userID.String(), fmt.Sprintf("%s-%s.png", name, uuid.NewString()))

	fullPath := filepath.Join(s.cfg.StorageRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := imaging.Save(img, fullPath); err != nil {
		return "", err
	}

	existing, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	branding := domain.Branding{UserID: userID, CreatedAt: now}
	if existing != nil {
		branding = *existing
	}
	oldPath := branding.LogoPath
	branding.LogoPath = fullPath
	branding.LogoURL = s.cfg.PublicBaseURL + "/storage/" + filepath.ToSlash(relPath)
	branding.UpdatedAt = now

	if err := s.repo.Upsert(ctx, s.db, &branding); err != nil {
		return "", err
	}
	s.Invalidate(userID)

	if oldPath != "" && oldPath != fullPath {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			obslogger.WithContext(ctx, s.log).Warn("stale logo not removed",
				zap.String("path", oldPath), zap.Error(err))
		}
	}

	return branding.LogoURL, nil
}

// LogoBytes is best-effort on the fetch path: a missing file or an
// unreachable remote logo yields nil bytes, never an error, so
// document rendering degrades to the no-logo layout.
func (s *Service) LogoBytes(ctx context.Context) ([]byte, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	branding, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if branding == nil {
		return nil, nil
	}

	if branding.LogoPath != "" {
		data, err := os.ReadFile(branding.LogoPath)
		if err == nil {
			return data, nil
		}
		obslogger.WithContext(ctx, s.log).Debug("stored logo unreadable", zap.Error(err))
	}

	if branding.LogoURL == "" {
		return nil, nil
	}
	return s.fetchLogo(ctx, branding.LogoURL), nil
}

// Invalidate drops the cached row for one account.
func (s *Service) Invalidate(userID snowflake.ID) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context, userID snowflake.ID) (*domain.Branding, error) {
	s.mu.RLock()
	cached, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	branding, err := s.repo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if branding != nil {
		s.mu.Lock()
		s.cache[userID] = *branding
		s.mu.Unlock()
	}
	return branding, nil
}

func (s *Service) resolve(branding *domain.Branding) domain.Resolved {
	defaults := s.defaults.Get()
	resolved := domain.Resolved{
		BusinessName: defaults.BusinessName,
		AccentColor:  defaults.AccentColor,
		ThankYouText: defaults.ThankYouText,
		DateFormat:   defaults.DateFormat,
	}
	if branding == nil {
		return resolved
	}
	if branding.BusinessName != "" {
		resolved.BusinessName = branding.BusinessName
	}
	resolved.Tagline = branding.Tagline
	if branding.AccentColor != "" {
		resolved.AccentColor = branding.AccentColor
	}
	if branding.ThankYouText != "" {
		resolved.ThankYouText = branding.ThankYouText
	}
	resolved.LogoURL = branding.LogoURL
	resolved.LogoPath = branding.LogoPath
	return resolved
}

func (s *Service) fetchLogo(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := s.http.Do(req)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Debug("logo fetch failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil
	}
	return data
}
