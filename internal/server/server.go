// Package server is the HTTP layer: it exposes the assistant API and fans
// requests out to the auth services and agent gateway.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"otto/internal/agent"
	"otto/internal/auth"
	"otto/internal/config"
	"otto/internal/logging"
	"otto/internal/observability"
	"otto/internal/session"
)

// Server wires the gin engine, the agent gateway and the auth clients.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server

	gateway  *agent.Gateway
	auth     *auth.Client
	sessions *session.Store
	metrics  *observability.MetricsCollector
	logger   logging.Logger

	startTime time.Time
}

// Options carries the server's collaborators.
type Options struct {
	Config   *config.Config
	Gateway  *agent.Gateway
	Auth     *auth.Client
	Sessions *session.Store
	Metrics  *observability.MetricsCollector
	Logger   logging.Logger
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		cfg:       opts.Config,
		engine:    engine,
		gateway:   opts.Gateway,
		auth:      opts.Auth,
		sessions:  opts.Sessions,
		metrics:   opts.Metrics,
		logger:    logging.OrNop(opts.Logger),
		startTime: time.Now(),
	}

	engine.Use(gin.Recovery())
	engine.Use(s.requestMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(opts.Config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.Config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	engine.Use(cors.New(corsConfig))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Config.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")

	api.POST("/signup", s.handleSignup)
	api.POST("/login", s.handleLogin)
	api.POST("/profile", s.handleProfile)

	api.POST("/public-data", s.handlePublicData)
	api.POST("/preferences", s.handleSavePreferences)
	api.POST("/calendar/events", s.handleCalendarEvents)
	api.POST("/calendar/events/structured", s.handleCalendarEventsStructured)
	api.POST("/recommendations/query", s.handleRecommendations)
	api.POST("/recommendations/gifts", s.handleGiftIdeas)
	api.POST("/insights", s.handleInsights)

	api.GET("/healthz", s.handleHealthz)

	api.GET("/session/:id", s.handleGetSession)
	api.DELETE("/session/:id", s.handleDeleteSession)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		s.metrics.RecordHTTPRequest(c.Request.Context(), route, status)
		s.logger.Info("%s %s -> %d (%s)", c.Request.Method, route, status, time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "otto backend is running")
}

func (s *Server) handleHealthz(c *gin.Context) {
	results := s.gateway.Probe(c.Request.Context())

	agents := make(map[string]string, len(results))
	status := "ok"
	for kind, err := range results {
		if err != nil {
			agents[string(kind)] = err.Error()
			status = "degraded"
			continue
		}
		agents[string(kind)] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
		"agents": agents,
	})
}
