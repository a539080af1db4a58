package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abhisek/tierlab/internal/analytics"
	"github.com/abhisek/tierlab/internal/assessment"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// TopicRequest names a (user, topic) pair.
type TopicRequest struct {
	UserID  string `json:"user_id"`
	TopicID string `json:"topic_id"`
}

// SubmissionRequest is the body of POST /api/v1/submissions.
type SubmissionRequest struct {
	TopicRequest
	Group string `json:"group"`
	assessment.InitialTiers
}

// DialogueRequest is the body of POST /api/v1/dialogue.
type DialogueRequest struct {
	TopicRequest
	Message string `json:"message"`
}

// RevisionRequest is the body of POST /api/v1/revisions and
// POST /api/v1/corrections.
type RevisionRequest struct {
	TopicRequest
	assessment.RevisedTiers
}

// HintResponse is the response body for POST /api/v1/hints.
type HintResponse struct {
	Hint string `json:"hint"`
}

// AssignedTopicsResponse is the response body for
// GET /api/v1/groups/:group/topics.
type AssignedTopicsResponse struct {
	Group  string   `json:"group"`
	Topics []string `json:"topics"`
}

// AnalyticsResponse is the response body for GET /api/v1/analytics/topics.
type AnalyticsResponse struct {
	Topics []analytics.TopicReport `json:"topics"`
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleSubmitInitial(c echo.Context) error {
	var req SubmissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.lifecycle.SubmitInitial(c.Request().Context(), req.UserID, req.Group, req.TopicID, req.InitialTiers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleDialogue(c echo.Context) error {
	var req DialogueRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.lifecycle.AdvanceDialogue(c.Request().Context(), req.UserID, req.TopicID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSubmitRevision(c echo.Context) error {
	var req RevisionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.lifecycle.SubmitRevision(c.Request().Context(), req.UserID, req.TopicID, req.RevisedTiers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleSubmitCorrection(c echo.Context) error {
	var req RevisionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.lifecycle.SubmitCorrection(c.Request().Context(), req.UserID, req.TopicID, req.RevisedTiers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleHint(c echo.Context) error {
	var req TopicRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	hint, err := s.lifecycle.RequestHint(c.Request().Context(), req.UserID, req.TopicID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HintResponse{Hint: hint})
}

func (s *Server) handleResume(c echo.Context) error {
	var req TopicRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.lifecycle.Resume(c.Request().Context(), req.UserID, req.TopicID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleLeave(c echo.Context) error {
	var req TopicRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	// State validates the pair before anything is discarded.
	if _, err := s.lifecycle.State(ctx, req.UserID, req.TopicID); err != nil {
		return err
	}
	s.lifecycle.Leave(req.UserID, req.TopicID)
	p, err := s.lifecycle.State(ctx, req.UserID, req.TopicID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleProgress(c echo.Context) error {
	p, err := s.lifecycle.State(c.Request().Context(), c.Param("user"), c.Param("topic"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleAssignedTopics(c echo.Context) error {
	group := c.Param("group")
	topics, err := s.tables.Assignments.TopicsForGroup(c.Request().Context(), group)
	if err != nil {
		return fmt.Errorf("%w: %w", assessment.ErrStoreUnavailable, err)
	}
	if topics == nil {
		topics = []string{}
	}
	return c.JSON(http.StatusOK, AssignedTopicsResponse{Group: group, Topics: topics})
}

func (s *Server) handleAnalytics(c echo.Context) error {
	reports, err := analytics.Build(c.Request().Context(), s.tables, s.analytics)
	if err != nil {
		return fmt.Errorf("%w: %w", assessment.ErrStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, AnalyticsResponse{Topics: reports})
}
