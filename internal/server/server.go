// Package server exposes the lifecycle tracker and the analytics report
// over HTTP for the presentation layer.
package server

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

	"github.com/abhisek/tierlab/internal/analytics"
	"github.com/abhisek/tierlab/internal/assessment"
	"github.com/abhisek/tierlab/internal/records"
)

// Lifecycle is the part of assessment.Tracker the API drives.
type Lifecycle interface {
	SubmitInitial(ctx context.Context, userID, group, topicID string, tiers assessment.InitialTiers) (*assessment.Progress, error)
	AdvanceDialogue(ctx context.Context, userID, topicID, utterance string) (*assessment.DialogueResult, error)
	SubmitRevision(ctx context.Context, userID, topicID string, tiers assessment.RevisedTiers) (*assessment.Progress, error)
	SubmitCorrection(ctx context.Context, userID, topicID string, tiers assessment.RevisedTiers) (*assessment.Progress, error)
	RequestHint(ctx context.Context, userID, topicID string) (string, error)
	Resume(ctx context.Context, userID, topicID string) (*assessment.Progress, error)
	Leave(userID, topicID string)
	State(ctx context.Context, userID, topicID string) (*assessment.Progress, error)
}

// Server provides the HTTP endpoints.
type Server struct {
	echo      *echo.Echo
	lifecycle Lifecycle
	tables    *records.Tables
	analytics analytics.Options
	logger    *zap.Logger
	config    Config
}

// NewServer wires the routes. tables backs the analytics endpoint.
func NewServer(lifecycle Lifecycle, tables *records.Tables, opts analytics.Options, logger *zap.Logger, cfg Config) (*Server, error) {
	if lifecycle == nil {
		return nil, fmt.Errorf("lifecycle tracker cannot be nil")
	}
	if tables == nil {
		return nil, fmt.Errorf("record tables cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		lifecycle: lifecycle,
		tables:    tables,
		analytics: opts,
		logger:    logger,
		config:    cfg,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.logRequests)

	s.registerRoutes()
	return s, nil
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/submissions", s.handleSubmitInitial)
	v1.POST("/dialogue", s.handleDialogue)
	v1.POST("/revisions", s.handleSubmitRevision)
	v1.POST("/corrections", s.handleSubmitCorrection)
	v1.POST("/hints", s.handleHint)
	v1.POST("/sessions/resume", s.handleResume)
	v1.POST("/sessions/leave", s.handleLeave)
	v1.GET("/progress/:user/:topic", s.handleProgress)
	v1.GET("/groups/:group/topics", s.handleAssignedTopics)
	v1.GET("/analytics/topics", s.handleAnalytics)
}

// logRequests logs the route template rather than the URI so student ids
// in paths stay out of the logs.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	msg := publicMessage(err, status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("route", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	if err := c.JSON(status, ErrorResponse{Error: msg}); err != nil {
		s.logger.Warn("write error response", zap.Error(err))
	}
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
