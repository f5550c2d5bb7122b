// Package server is the local companion gateway: it fronts the Draftolio
// backend for a browser, applying the route guards to page navigation and
// exposing the session and draft operations as JSON endpoints.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api"
	"github.com/wttnguyen/draftolio/internal/config"
	"github.com/wttnguyen/draftolio/internal/guard"
	"github.com/wttnguyen/draftolio/internal/notify"
	"github.com/wttnguyen/draftolio/internal/routes"
	"github.com/wttnguyen/draftolio/internal/session"
	"github.com/wttnguyen/draftolio/internal/store"
)

// Server is the companion gateway HTTP server.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	session  *session.Store
	client   *api.Client
	notifier *notify.Center
	cache    *store.Store
	logger   zerolog.Logger
	version  string
}

// New creates a gateway server over an already-wired session store and API
// client. cache may be nil when the local draft cache is disabled.
func New(cfg *config.Config, sess *session.Store, client *api.Client, notifier *notify.Center, cache *store.Store, zlog zerolog.Logger, version string) *Server {
	s := &Server{
		config:   cfg,
		session:  sess,
		client:   client,
		notifier: notifier,
		cache:    cache,
		logger:   zlog,
		version:  version,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	allowOrigins := s.config.Gateway.AllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:4200"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/healthz", s.healthCheck)

	// Pages. Each guard runs as middleware and turns a denial into a 302.
	s.router.GET(routes.Home, s.homePage)
	s.router.GET(routes.Login, s.loginPage)
	s.router.GET(routes.Unauthorized, s.unauthorizedPage)
	s.router.GET(routes.RegionRestricted, s.regionRestrictedPage)
	s.router.GET(routes.Dashboard, s.guarded(guard.RequireAuth), s.dashboardPage)
	s.router.GET(routes.Profile, s.guarded(guard.RequireAuth), s.profilePage)
	s.router.GET(routes.Admin, s.guarded(guard.RequireAdmin), s.adminPage)
	s.router.GET(routes.Drafts, s.guarded(guard.RequireRegion(s.config.Gateway.AllowedRegions)), s.draftsPage)
	s.router.GET(routes.NewDraft, s.guarded(guard.RequireFreshToken), s.newDraftPage)

	// Session operations.
	s.router.GET("/session", s.getSession)
	s.router.POST("/session/login", s.startLogin)
	s.router.POST("/session/logout", s.doLogout)
	s.router.POST("/session/refresh", s.doRefresh)

	// Draft operations, proxied through the authenticated client.
	apiGroup := s.router.Group("/api/drafts")
	{
		apiGroup.POST("", s.createDraft)
		apiGroup.GET("/recent", s.recentDrafts)
		apiGroup.GET("/modes", s.listModes)
		apiGroup.GET("/spectate/:token", s.spectateDraft)
		apiGroup.GET("/:id", s.getDraft)
		apiGroup.POST("/:id/spectate", s.generateSpectateURL)
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// guarded adapts a route guard into gin middleware: denials become redirects
// and the handler never runs.
func (s *Server) guarded(g func(ctx context.Context, sess guard.Session, target string) guard.Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g(c.Request.Context(), s.session, c.Request.URL.RequestURI())
		if !decision.Allowed {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "draftolio-gateway",
		"version":   s.version,
	})
}

// Start starts the gateway and blocks until SIGINT/SIGTERM.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Gateway.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", s.config.Gateway.ListenAddr).Msg("Starting gateway server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing draft cache")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
