package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/tierlab/internal/analytics"
	"github.com/abhisek/tierlab/internal/assessment"
	"github.com/abhisek/tierlab/internal/llm"
	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/store"
	"github.com/abhisek/tierlab/internal/tutor"
)

type testServer struct {
	*Server
	llm *llm.MockProvider
}

func setupTestServer(t *testing.T, cfg assessment.Config) *testServer {
	t.Helper()

	rs, err := store.OpenSQLite(filepath.Join(t.TempDir(), "tierlab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })

	tables := records.New(rs)
	require.NoError(t, tables.Modules.Append(context.Background(), records.Module{
		TopicID:       "pH_SCALE",
		Title:         "The pH scale",
		Question:      "Which solution is most acidic?",
		Options:       []string{"pH 2", "pH 7", "pH 12"},
		CorrectAnswer: "pH 2",
	}))

	mock := llm.NewMockProvider()
	tracker := assessment.NewTracker(tables, tutor.NewService(mock, tutor.DefaultConfig()), cfg)

	s, err := NewServer(tracker, tables, analytics.DefaultOptions(), zap.NewNop(), DefaultConfig())
	require.NoError(t, err)
	return &testServer{Server: s, llm: mock}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func submission(user, group string) SubmissionRequest {
	return SubmissionRequest{
		TopicRequest: TopicRequest{UserID: user, TopicID: "pH_SCALE"},
		Group:        group,
		InitialTiers: assessment.InitialTiers{
			Answer:           "pH 12",
			AnswerConfidence: "High",
			Reasoning:        "Bigger numbers are stronger",
			ReasonConfidence: "High",
		},
	}
}

func revision(user string) RevisionRequest {
	return RevisionRequest{
		TopicRequest: TopicRequest{UserID: user, TopicID: "pH_SCALE"},
		RevisedTiers: assessment.RevisedTiers{Answer: "pH 2", Confidence: "High"},
	}
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, &records.Tables{}, analytics.DefaultOptions(), zap.NewNop(), DefaultConfig())
	assert.Error(t, err)

	s := setupTestServer(t, assessment.DefaultConfig())
	_, err = NewServer(s.lifecycle, s.tables, analytics.DefaultOptions(), nil, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t, assessment.DefaultConfig())

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestHandleMetrics(t *testing.T) {
	s := setupTestServer(t, assessment.DefaultConfig())
	s.do(t, http.MethodPost, "/api/v1/submissions", submission("S001", "experimental"))

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tierlab_assessment_transitions_total")
}

func TestFullLifecycle(t *testing.T) {
	s := setupTestServer(t, assessment.DefaultConfig())
	s.llm.AddResponse(llm.TextReply("What does the pH number measure?"))
	s.llm.AddResponse(llm.TextReply("Exactly right. [MASTERY_DETECTED]"))

	rec := s.do(t, http.MethodPost, "/api/v1/submissions", submission("S001", "experimental"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, assessment.StateInitialSubmitted, decode[assessment.Progress](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/v1/revisions", revision("S001"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	turn := DialogueRequest{TopicRequest: TopicRequest{UserID: "S001", TopicID: "pH_SCALE"}, Message: "I think 12"}
	rec = s.do(t, http.MethodPost, "/api/v1/dialogue", turn)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[assessment.DialogueResult](t, rec)
	assert.False(t, res.MasteryDetected)
	assert.Equal(t, assessment.StateTutoringActive, res.State)

	turn.Message = "Lower pH means more H+"
	rec = s.do(t, http.MethodPost, "/api/v1/dialogue", turn)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[assessment.DialogueResult](t, rec)
	assert.True(t, res.MasteryDetected)
	assert.Equal(t, "Exactly right.", res.Reply)

	rec = s.do(t, http.MethodPost, "/api/v1/revisions", revision("S001"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, assessment.StateRevisedSubmitted, decode[assessment.Progress](t, rec).State)

	rec = s.do(t, http.MethodGet, "/api/v1/progress/S001/pH_SCALE", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[assessment.Progress](t, rec)
	assert.Equal(t, assessment.StateRevisedSubmitted, p.State)
	assert.False(t, p.MasteryFlag)

	rec = s.do(t, http.MethodPost, "/api/v1/corrections", revision("S001"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/analytics/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[AnalyticsResponse](t, rec)
	require.Len(t, report.Topics, 1)
	assert.Equal(t, 1, report.Topics[0].Mastery)
	assert.Equal(t, 1, report.Topics[0].Corrected)
	assert.Equal(t, 1, report.Topics[0].Categories[analytics.CategoryMisconception])
}

func TestErrorMapping(t *testing.T) {
	s := setupTestServer(t, assessment.Config{TutorGroups: []string{"experimental"}})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank tier", func(t *testing.T) {
		body := submission("S001", "experimental")
		body.Reasoning = "  "
		rec := s.do(t, http.MethodPost, "/api/v1/submissions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Error, "tier3_reasoning")
	})

	t.Run("duplicate", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/submissions", submission("S002", "experimental")).Code)
		rec := s.do(t, http.MethodPost, "/api/v1/submissions", submission("S002", "experimental"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("tutoring disabled", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/submissions", submission("S003", "control")).Code)
		rec := s.do(t, http.MethodPost, "/api/v1/dialogue", DialogueRequest{
			TopicRequest: TopicRequest{UserID: "S003", TopicID: "pH_SCALE"}, Message: "hi",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/hints", TopicRequest{UserID: "S404", TopicID: "pH_SCALE"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("dialogue service down", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/dialogue", DialogueRequest{
			TopicRequest: TopicRequest{UserID: "S002", TopicID: "pH_SCALE"}, Message: "hi",
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, assessment.ErrServiceUnavailable.Error(), decode[ErrorResponse](t, rec).Error)
	})
}

func TestHintAndSessions(t *testing.T) {
	s := setupTestServer(t, assessment.DefaultConfig())
	s.llm.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"hint":"Think about H+ ions."}`)})

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/submissions", submission("S001", "")).Code)
	key := TopicRequest{UserID: "S001", TopicID: "pH_SCALE"}

	rec := s.do(t, http.MethodPost, "/api/v1/hints", key)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Think about H+ ions.", decode[HintResponse](t, rec).Hint)

	rec = s.do(t, http.MethodPost, "/api/v1/sessions/leave", key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[assessment.Progress](t, rec).HasSession)

	rec = s.do(t, http.MethodPost, "/api/v1/hints", key)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/sessions/resume", key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[assessment.Progress](t, rec).HasSession)

	rec = s.do(t, http.MethodPost, "/api/v1/sessions/leave", TopicRequest{UserID: "", TopicID: "pH_SCALE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignedTopics(t *testing.T) {
	s := setupTestServer(t, assessment.DefaultConfig())
	require.NoError(t, s.tables.Assignments.Append(context.Background(),
		records.Assignment{Group: "experimental", TopicID: "pH_SCALE"},
		records.Assignment{Group: "control", TopicID: "ATOM"},
	))

	rec := s.do(t, http.MethodGet, "/api/v1/groups/Experimental/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pH_SCALE"}, decode[AssignedTopicsResponse](t, rec).Topics)

	rec = s.do(t, http.MethodGet, "/api/v1/groups/nobody/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[AssignedTopicsResponse](t, rec).Topics)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&assessment.ValidationError{Field: "user_id"}, http.StatusBadRequest},
		{assessment.ErrDuplicateSubmission, http.StatusConflict},
		{assessment.ErrMasteryNotDetected, http.StatusConflict},
		{assessment.ErrNoActiveSession, http.StatusConflict},
		{assessment.ErrNotRevised, http.StatusConflict},
		{assessment.ErrTutoringDisabled, http.StatusForbidden},
		{fmt.Errorf("%w: timeout", assessment.ErrServiceUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: quota", assessment.ErrStoreUnavailable), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, "localhost:8080", c.Addr())

	c.Port = 0
	assert.Error(t, c.Validate())
}
