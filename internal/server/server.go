// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billfold/billfold/internal/activity"
	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	activityhub "github.com/billfold/billfold/internal/activity/hub"
	"github.com/billfold/billfold/internal/auth"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/session"
	"github.com/billfold/billfold/internal/branding"
	brandingdomain "github.com/billfold/billfold/internal/branding/domain"
	"github.com/billfold/billfold/internal/client"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/invoice/render"
	"github.com/billfold/billfold/internal/observability"
	obsmiddleware "github.com/billfold/billfold/internal/observability/logger"
	obsmetrics "github.com/billfold/billfold/internal/observability/metrics"
	obstracing "github.com/billfold/billfold/internal/observability/tracing"
	"github.com/billfold/billfold/internal/providers"
	"github.com/billfold/billfold/internal/ratelimit"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	client.Module,
	invoice.Module,
	activity.Module,
	branding.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	sessions    *session.Manager
	authSvc     authdomain.Service
	clientSvc   clientdomain.Service
	invoiceSvc  invoicedomain.Service
	renderer    *render.Renderer
	activitySvc activitydomain.Service
	activityHub *activityhub.Hub
	brandingSvc brandingdomain.Service
	obsMetrics  *obsmetrics.HTTPMetrics
	tap         *ratelimit.Tap
	bucket      *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Sessions    *session.Manager
	AuthSvc     authdomain.Service
	ClientSvc   clientdomain.Service
	InvoiceSvc  invoicedomain.Service
	Renderer    *render.Renderer
	ActivitySvc activitydomain.Service
	ActivityHub *activityhub.Hub
	BrandingSvc brandingdomain.Service
	ObsMetrics  *obsmetrics.HTTPMetrics
	Tap         *ratelimit.Tap
	Bucket      *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		sessions:    p.Sessions,
		authSvc:     p.AuthSvc,
		clientSvc:   p.ClientSvc,
		invoiceSvc:  p.InvoiceSvc,
		renderer:    p.Renderer,
		activitySvc: p.ActivitySvc,
		activityHub: p.ActivityHub,
		brandingSvc: p.BrandingSvc,
		obsMetrics:  p.ObsMetrics,
		tap:         p.Tap,
		bucket:      p.Bucket,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerStaticRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.BucketLimit("auth.signup", 0.2, 5), s.TapThrottle("signup"), s.SignUp)
	auth.POST("/login", s.BucketLimit("auth.login", 0.5, 10), s.TapThrottle("login"), s.SignIn)
	auth.POST("/logout", s.SignOut)
	auth.GET("/me", s.Me)
	auth.POST("/onboarding", s.AuthRequired(), s.CompleteOnboarding)

	// Deep-link target for email confirmation.
	auth.GET("/confirm", s.ConfirmEmail)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")
	api.Use(s.AuthRequired())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PUT("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.TapThrottle("invoice.delete"), s.DeleteInvoice)
	api.POST("/invoices/:id/send", s.TapThrottle("invoice.send"), s.SendInvoice)
	api.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	api.POST("/invoices/:id/opened", s.MarkInvoiceOpened)
	api.POST("/invoices/:id/archive", s.ArchiveInvoice)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.POST("/invoices/sweep-overdue", s.SweepOverdue)

	// -------- Activity --------
	api.GET("/activity", s.ListActivity)
	api.POST("/activity/read", s.MarkActivityRead)
	api.DELETE("/activity/:id", s.DeleteActivity)
	api.GET("/activity/unread-count", s.UnreadCount)
	api.GET("/activity/stream", s.StreamActivity)

	// -------- Branding --------
	api.GET("/branding", s.GetBranding)
	api.PUT("/branding", s.UpdateBranding)
	api.POST("/branding/logo", s.UploadLogo)
}

func (s *Server) registerStaticRoutes() {
	// Uploaded branding assets are served straight from disk; logo
	// URLs carry a cache-busting suffix.
	s.engine.Static("/storage", s.cfg.StorageRoot)
}

// classifyErrorForLog tags the request log with the mapped error type
// and the underlying error code.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
