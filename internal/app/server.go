// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/admin"
	"wecare_donations_backend/internal/auth"
	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/jobs"
	"wecare_donations_backend/internal/matching"
	"wecare_donations_backend/internal/middleware"
	"wecare_donations_backend/internal/notification"
	"wecare_donations_backend/internal/platform/metrics"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Category     *category.Handler
	Donation     *donation.Handler
	Matching     *matching.Handler
	Notification *notification.Handler
	Admin        *admin.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	reindexJob *jobs.SearchReindexJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	handlers Handlers,
	store filestorage.Store,
	rdb *goredis.Client,
	tokenService shared.TokenService,
	blocklist shared.TokenBlocklist,
	reindexJob *jobs.SearchReindexJob,
) *Server {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "WeCare Donations API is healthy!"})
	})
	if local, ok := store.(*filestorage.LocalStore); ok {
		router.Static(filestorage.LocalURLPrefix, local.Root())
	}

	authMW := middleware.AuthMiddleware(tokenService, blocklist, logger)
	adminRoleMW := middleware.RoleAuthMiddleware(shared.RoleAdmin)
	matchLimitMW := middleware.RateLimit(rdb, cfg.AIMatchRateLimitPerMinute, time.Minute,
		middleware.KeyByPrincipal("ai_match"), logger.Named("rate_limit"))

	v1 := router.Group("/api/v1")
	handlers.Auth.RegisterRoutes(v1, authMW)
	handlers.User.RegisterRoutes(v1, authMW)
	handlers.Category.RegisterRoutes(v1, authMW, adminRoleMW)
	handlers.Donation.RegisterRoutes(v1, authMW)
	handlers.Matching.RegisterRoutes(v1, authMW, matchLimitMW)
	handlers.Notification.RegisterRoutes(v1, authMW)
	handlers.Admin.RegisterRoutes(v1, authMW, adminRoleMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AIMatchTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		reindexJob: reindexJob,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.reindexJob != nil {
		if err := s.reindexJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start search reindex job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.reindexJob != nil {
		s.reindexJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
