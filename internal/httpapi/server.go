// Package httpapi provides the HTTP API for tiisd.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/attachments"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/conversation"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/toolmentions"
)

// userHeader carries the caller's identity. Identity resolution happens
// upstream; the server trusts the header as the storage namespace key.
const userHeader = "X-User-Email"

// Server provides HTTP endpoints for tiisd.
type Server struct {
	echo   *echo.Echo
	convs  *conversation.Service
	tools  *toolmentions.Aggregator
	logger *zap.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(convs *conversation.Service, tools *toolmentions.Aggregator, logger *zap.Logger, cfg *Config) (*Server, error) {
	if convs == nil {
		return nil, fmt.Errorf("conversation service cannot be nil")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool aggregator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
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
		echo:   e,
		convs:  convs,
		tools:  tools,
		logger: logger,
		config: cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.POST("/onboarding", s.handleCreateOnboarding)
	v1.POST("/onboarding/messages", s.handleAppendOnboarding)
	v1.POST("/onboarding/complete", s.handleCompleteOnboarding)

	v1.POST("/conversations", s.handleCreateTask)
	v1.GET("/conversations", s.handleList)
	v1.GET("/conversations/:id", s.handleGet)
	v1.POST("/conversations/:id/messages", s.handleAppendTask)
	v1.DELETE("/conversations/:id", s.handleDelete)

	v1.GET("/tools", s.handleAllTools)
	v1.GET("/tools/stats", s.handleToolStats)
	v1.GET("/tools/categories", s.handleToolCategories)
	v1.GET("/tools/by-user/:email", s.handleToolsByUser)
	v1.GET("/tools/:name", s.handleToolDetail)
}

// userEmail extracts the caller identity header or fails with 400.
func userEmail(c echo.Context) (string, error) {
	email := c.Request().Header.Get(userHeader)
	if email == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, userHeader+" header is required")
	}
	return email, nil
}

// httpError maps service errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	case errors.Is(err, conversation.ErrOnboardingExists):
		return echo.NewHTTPError(http.StatusConflict, "onboarding already exists")
	case errors.Is(err, conversation.ErrOnboardingIncomplete):
		return echo.NewHTTPError(http.StatusConflict, "onboarding is not complete")
	case errors.Is(err, conversation.ErrOnboardingUndeletable):
		return echo.NewHTTPError(http.StatusConflict, "onboarding conversation cannot be deleted")
	case errors.Is(err, conversation.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, "message text is required")
	case errors.Is(err, toolmentions.ErrToolNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "tool not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleCreateOnboarding(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	conv, greeting, err := s.convs.CreateOnboarding(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, CreateResponse{
		ConversationID: conv.ID,
		GreetingText:   greeting,
	})
}

func (s *Server) handleAppendOnboarding(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid message request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.convs.AppendOnboardingMessage(c.Request().Context(), user, req.Text, req.uploads())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, AppendResponse{
		ReplyText:          res.ReplyText,
		IsSummaryCandidate: res.IsSummaryCandidate,
	})
}

func (s *Server) handleCompleteOnboarding(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Summary == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "summary field is required")
	}

	if err := s.convs.CompleteOnboarding(c.Request().Context(), user, req.Summary); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	conv, greeting, err := s.convs.CreateTask(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, CreateResponse{
		ConversationID: conv.ID,
		GreetingText:   greeting,
	})
}

func (s *Server) handleAppendTask(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.convs.AppendTaskMessage(c.Request().Context(), user, c.Param("id"), req.Text, req.uploads())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, AppendResponse{
		ReplyText:    res.ReplyText,
		DerivedTitle: res.DerivedTitle,
	})
}

func (s *Server) handleList(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	entries, err := s.convs.List(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGet(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	conv, err := s.convs.Get(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) handleDelete(c echo.Context) error {
	user, err := userEmail(c)
	if err != nil {
		return err
	}

	if err := s.convs.Delete(c.Request().Context(), user, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAllTools(c echo.Context) error {
	stats, err := s.tools.AllTools(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleToolStats(c echo.Context) error {
	stats, err := s.tools.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleToolCategories(c echo.Context) error {
	groups, err := s.tools.ByCategory(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, groups)
}

func (s *Server) handleToolsByUser(c echo.Context) error {
	stats, err := s.tools.ByUser(c.Request().Context(), c.Param("email"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleToolDetail(c echo.Context) error {
	detail, err := s.tools.Detail(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
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

// uploads converts the wire attachments into store uploads.
func (r *MessageRequest) uploads() []attachments.Upload {
	if len(r.Attachments) == 0 {
		return nil
	}
	out := make([]attachments.Upload, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		out = append(out, attachments.Upload{
			MediaType:    a.MediaType,
			Data:         a.Data,
			Size:         int64(len(a.Data)),
			DeclaredName: a.Name,
		})
	}
	return out
}
