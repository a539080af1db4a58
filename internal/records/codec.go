package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/tierlab/internal/store"
)

const optionSeparator = "|"

// timeLayouts are tried in order when reading timestamps. Rows written by
// tierlab use RFC 3339; the others show up when people edit the sheet.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

func (s Submission) toRow() store.Row {
	return store.Row{
		"submission_id":    s.ID,
		"user_id":          s.UserID,
		"group":            s.Group,
		"topic_id":         s.TopicID,
		"tier1_answer":     s.Tier1Answer,
		"tier2_confidence": s.Tier2Confidence,
		"tier3_reasoning":  s.Tier3Reasoning,
		"tier4_confidence": s.Tier4Confidence,
		"tier5_answer":     s.Tier5Answer,
		"tier6_confidence": s.Tier6Confidence,
		"status":           string(s.Status),
		"timestamp":        formatTime(s.Timestamp),
	}
}

func submissionFromRow(r store.Row) Submission {
	return Submission{
		ID:              r.Get("submission_id"),
		UserID:          strings.TrimSpace(r.Get("user_id")),
		Group:           strings.TrimSpace(r.Get("group")),
		TopicID:         strings.TrimSpace(r.Get("topic_id")),
		Tier1Answer:     r.Get("tier1_answer"),
		Tier2Confidence: r.Get("tier2_confidence"),
		Tier3Reasoning:  r.Get("tier3_reasoning"),
		Tier4Confidence: r.Get("tier4_confidence"),
		Tier5Answer:     r.Get("tier5_answer"),
		Tier6Confidence: r.Get("tier6_confidence"),
		Status:          Status(strings.ToUpper(strings.TrimSpace(r.Get("status")))),
		Timestamp:       parseTime(r.Get("timestamp")),
	}
}

func (t Trace) toRow() store.Row {
	return store.Row{
		"user_id":    t.UserID,
		"event_type": string(t.EventType),
		"details":    t.Details,
		"timestamp":  formatTime(t.Timestamp),
	}
}

func traceFromRow(r store.Row) Trace {
	return Trace{
		UserID:    strings.TrimSpace(r.Get("user_id")),
		EventType: EventType(strings.ToUpper(strings.TrimSpace(r.Get("event_type")))),
		Details:   r.Get("details"),
		Timestamp: parseTime(r.Get("timestamp")),
	}
}

func (m Module) toRow() store.Row {
	return store.Row{
		"topic_id":       m.TopicID,
		"title":          m.Title,
		"question":       m.Question,
		"options":        strings.Join(m.Options, optionSeparator),
		"correct_answer": m.CorrectAnswer,
		"scaffold_goal":  m.ScaffoldGoal,
	}
}

func moduleFromRow(r store.Row) Module {
	var opts []string
	for _, o := range strings.Split(r.Get("options"), optionSeparator) {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	return Module{
		TopicID:       strings.TrimSpace(r.Get("topic_id")),
		Title:         r.Get("title"),
		Question:      r.Get("question"),
		Options:       opts,
		CorrectAnswer: r.Get("correct_answer"),
		ScaffoldGoal:  r.Get("scaffold_goal"),
	}
}

func (a Assignment) toRow() store.Row {
	return store.Row{
		"group":       a.Group,
		"topic_id":    a.TopicID,
		"assigned_at": formatTime(a.AssignedAt),
	}
}

func assignmentFromRow(r store.Row) Assignment {
	return Assignment{
		Group:      strings.TrimSpace(r.Get("group")),
		TopicID:    strings.TrimSpace(r.Get("topic_id")),
		AssignedAt: parseTime(r.Get("assigned_at")),
	}
}

func (l LLMRequest) toRow() store.Row {
	return store.Row{
		"provider":      l.Provider,
		"model":         l.Model,
		"purpose":       l.Purpose,
		"input_tokens":  strconv.Itoa(l.InputTokens),
		"output_tokens": strconv.Itoa(l.OutputTokens),
		"latency_ms":    strconv.FormatInt(l.LatencyMs, 10),
		"success":       strconv.FormatBool(l.Success),
		"error_message": l.ErrorMessage,
		"timestamp":     formatTime(l.Timestamp),
	}
}

func llmRequestFromRow(r store.Row) LLMRequest {
	latency, _ := strconv.ParseInt(strings.TrimSpace(r.Get("latency_ms")), 10, 64)
	return LLMRequest{
		Provider:     r.Get("provider"),
		Model:        r.Get("model"),
		Purpose:      r.Get("purpose"),
		InputTokens:  parseInt(r.Get("input_tokens")),
		OutputTokens: parseInt(r.Get("output_tokens")),
		LatencyMs:    latency,
		Success:      parseBool(r.Get("success")),
		ErrorMessage: r.Get("error_message"),
		Timestamp:    parseTime(r.Get("timestamp")),
	}
}
