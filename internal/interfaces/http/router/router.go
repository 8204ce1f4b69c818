// Package router assembles the gin engine of the document service.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/docgen/internal/infrastructure/auth"
	"github.com/erp/docgen/internal/infrastructure/logger"
	"github.com/erp/docgen/internal/interfaces/http/handler"
	"github.com/erp/docgen/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds what the router needs besides its handlers
type Config struct {
	APIVersion     string
	MaxBodySize    int64
	RequestTimeout time.Duration
	TrustedProxies []string
	JWTService     *auth.JWTService
	Revocations    auth.RevocationList
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
}

// Handlers groups the endpoint handlers. Files is nil unless documents are
// stored on the local filesystem.
type Handlers struct {
	Auth      *handler.AuthHandler
	Documents RouteRegistrar
	System    *handler.SystemHandler
	Files     *handler.FileHandler
}

// New builds the engine with middleware and every route mounted
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(),
	)
	engine.NoRoute(middleware.NoRoute())

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if h.Files != nil {
		engine.GET("/files/:bucket/*key", h.Files.ServeDocument)
	}

	api := engine.Group("/api/"+cfg.APIVersion, middleware.BodyLimit(cfg.MaxBodySize))
	requireAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:  cfg.JWTService,
		Revocations: cfg.Revocations,
		Logger:      cfg.Logger,
	})

	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", requireAuth, h.Auth.Logout)
	}

	protected := api.Group("", requireAuth, middleware.Timeout(cfg.RequestTimeout))
	if h.System != nil {
		protected.GET("/system/info", h.System.GetSystemInfo)
	}
	if h.Documents != nil {
		h.Documents.RegisterRoutes(protected)
	}
	return engine, nil
}
