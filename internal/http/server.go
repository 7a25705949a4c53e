// Package http provides the REST API for memorid.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/botfusions/memorid/internal/memori"
	"github.com/botfusions/memorid/internal/namespace"
)

// serviceName is the identity reported by the liveness endpoints.
const serviceName = "memorid"

// Chat outcome labels for the chat metrics counter.
const (
	chatOutcomeSuccess   = "success"
	chatOutcomeRecovered = "recovered_error"
	chatOutcomeSurfaced  = "surfaced_error"
)

// Server provides HTTP endpoints for memorid.
type Server struct {
	echo     *echo.Echo
	registry *memori.Registry
	logger   *zap.Logger
	metrics  *Metrics
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// NewServer creates a new HTTP server.
func NewServer(registry *memori.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8002,
		}
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		registry: registry,
		logger:   logger,
		metrics:  NewMetrics(logger),
		config:   cfg,
	}
	e.Use(s.metrics.Middleware())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/chat", s.handleChat)
	s.echo.GET("/memory/stats", s.handleMemoryStats)
	s.echo.GET("/memory/namespaces", s.handleNamespaces)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// handleRoot reports liveness.
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "online",
		Service: serviceName,
		Version: s.config.Version,
	})
}

// handleHealth reports health.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: s.config.Version,
	})
}

// handleChat forwards a chat message through the memory engine to the LLM.
//
// The facade is resolved by base namespace only; a user_id is handled as a
// transient per-call substitution inside the facade and never creates a
// registry entry of its own. Recovered LLM failures return 200 with
// success=false; unexpected facade errors return 500.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	msgLen := utf8.RuneCountInString(req.Message)
	if msgLen < minMessageLen {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if msgLen > maxMessageLen {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("message exceeds %d characters", maxMessageLen))
	}

	if req.Namespace == "" {
		req.Namespace = namespace.Default
	}
	if err := namespace.Validate(req.Namespace, req.UserID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	svc, err := s.registry.Resolve(req.Namespace, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	result, err := svc.Chat(c.Request().Context(), memori.ChatRequest{
		Message:      req.Message,
		UserID:       req.UserID,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		s.metrics.RecordChatOutcome(c, chatOutcomeSurfaced)
		s.logger.Error("chat error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !result.Success {
		s.metrics.RecordChatOutcome(c, chatOutcomeRecovered)
		return c.JSON(http.StatusOK, ChatResponse{
			Success: false,
			Error:   result.Error,
			Metadata: &ChatMetadata{
				Namespace: result.Namespace,
			},
		})
	}

	s.metrics.RecordChatOutcome(c, chatOutcomeSuccess)
	return c.JSON(http.StatusOK, ChatResponse{
		Success:  true,
		Response: result.Response,
		Metadata: &ChatMetadata{
			Model:     result.Model,
			Namespace: result.Namespace,
			Usage:     result.Usage,
		},
	})
}

// handleMemoryStats reports memory backend statistics for a namespace.
func (s *Server) handleMemoryStats(c echo.Context) error {
	ns := c.QueryParam("namespace")
	if ns == "" {
		ns = namespace.Default
	}
	userID := c.QueryParam("user_id")

	if err := namespace.Validate(ns, userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	svc, err := s.registry.Resolve(ns, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	stats, err := svc.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error("stats error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}

// handleNamespaces lists all cached service keys.
func (s *Server) handleNamespaces(c echo.Context) error {
	keys := s.registry.Keys()
	return c.JSON(http.StatusOK, NamespacesResponse{
		Namespaces: keys,
		Count:      len(keys),
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
