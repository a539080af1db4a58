package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tierlab/internal/store"
)

// Tables gives typed access to every table of a RecordStore.
type Tables struct {
	Submissions *SubmissionRepo
	Traces      *TraceRepo
	Modules     *ModuleRepo
	Assignments *AssignmentRepo
	LLMRequests *LLMRequestRepo
}

// New wraps rs with the typed repositories.
func New(rs store.RecordStore) *Tables {
	return &Tables{
		Submissions: &SubmissionRepo{rs: rs},
		Traces:      &TraceRepo{rs: rs},
		Modules:     &ModuleRepo{rs: rs},
		Assignments: &AssignmentRepo{rs: rs},
		LLMRequests: &LLMRequestRepo{rs: rs},
	}
}

// SubmissionRepo reads and appends Submissions.
type SubmissionRepo struct {
	rs store.RecordStore
}

// Append stores subs in one write.
func (r *SubmissionRepo) Append(ctx context.Context, subs ...Submission) error {
	rows := make([]store.Row, len(subs))
	for i, s := range subs {
		rows[i] = s.toRow()
	}
	if err := r.rs.Append(ctx, TableSubmissions, rows...); err != nil {
		return fmt.Errorf("append submissions: %w", err)
	}
	return nil
}

// All returns every submission in store order. Rows repeated by a retried
// write share a submission id and are returned once. Rows without an id
// (entered by hand) are always kept.
func (r *SubmissionRepo) All(ctx context.Context) ([]Submission, error) {
	rows, err := r.rs.ReadAll(ctx, TableSubmissions)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]Submission, 0, len(rows))
	for _, row := range rows {
		s := submissionFromRow(row)
		if s.ID != "" {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
		}
		out = append(out, s)
	}
	return out, nil
}

// ForTopic returns the submissions of one user for one topic, oldest first.
func (r *SubmissionRepo) ForTopic(ctx context.Context, userID, topicID string) ([]Submission, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Submission
	for _, s := range all {
		if s.UserID == userID && s.TopicID == topicID {
			out = append(out, s)
		}
	}
	return out, nil
}

// TraceRepo reads and appends Traces.
type TraceRepo struct {
	rs store.RecordStore
}

// Append stores traces in one write.
func (r *TraceRepo) Append(ctx context.Context, traces ...Trace) error {
	if len(traces) == 0 {
		return nil
	}
	rows := make([]store.Row, len(traces))
	for i, t := range traces {
		rows[i] = t.toRow()
	}
	if err := r.rs.Append(ctx, TableTraces, rows...); err != nil {
		return fmt.Errorf("append traces: %w", err)
	}
	return nil
}

// ForUser returns the traces of one user in store order.
func (r *TraceRepo) ForUser(ctx context.Context, userID string) ([]Trace, error) {
	rows, err := r.rs.ReadAll(ctx, TableTraces)
	if err != nil {
		return nil, fmt.Errorf("read traces: %w", err)
	}
	var out []Trace
	for _, row := range rows {
		t := traceFromRow(row)
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ModuleRepo reads and appends Modules.
type ModuleRepo struct {
	rs store.RecordStore
}

// Append stores modules in one write.
func (r *ModuleRepo) Append(ctx context.Context, mods ...Module) error {
	rows := make([]store.Row, len(mods))
	for i, m := range mods {
		rows[i] = m.toRow()
	}
	if err := r.rs.Append(ctx, TableModules, rows...); err != nil {
		return fmt.Errorf("append modules: %w", err)
	}
	return nil
}

// All returns the current module per topic. A later row for the same topic
// replaces an earlier one, so teachers revise a module by appending it again.
func (r *ModuleRepo) All(ctx context.Context) ([]Module, error) {
	rows, err := r.rs.ReadAll(ctx, TableModules)
	if err != nil {
		return nil, fmt.Errorf("read modules: %w", err)
	}

	index := make(map[string]int)
	var out []Module
	for _, row := range rows {
		m := moduleFromRow(row)
		if m.TopicID == "" {
			continue
		}
		if i, ok := index[m.TopicID]; ok {
			out[i] = m
			continue
		}
		index[m.TopicID] = len(out)
		out = append(out, m)
	}
	return out, nil
}

// Get returns the module for topicID, or nil if there is none.
func (r *ModuleRepo) Get(ctx context.Context, topicID string) (*Module, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].TopicID == topicID {
			return &all[i], nil
		}
	}
	return nil, nil
}

// AssignmentRepo reads and appends Assignments.
type AssignmentRepo struct {
	rs store.RecordStore
}

// Append stores assignments in one write.
func (r *AssignmentRepo) Append(ctx context.Context, as ...Assignment) error {
	rows := make([]store.Row, len(as))
	for i, a := range as {
		rows[i] = a.toRow()
	}
	if err := r.rs.Append(ctx, TableAssignments, rows...); err != nil {
		return fmt.Errorf("append assignments: %w", err)
	}
	return nil
}

// All returns every assignment row that names a topic.
func (r *AssignmentRepo) All(ctx context.Context) ([]Assignment, error) {
	rows, err := r.rs.ReadAll(ctx, TableAssignments)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	var out []Assignment
	for _, row := range rows {
		if a := assignmentFromRow(row); a.TopicID != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

// TopicsForGroup returns the distinct topics assigned to group, in first
// assignment order. Group names match case-insensitively.
func (r *AssignmentRepo) TopicsForGroup(ctx context.Context, group string) ([]string, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, a := range all {
		if !strings.EqualFold(a.Group, group) || seen[a.TopicID] {
			continue
		}
		seen[a.TopicID] = true
		out = append(out, a.TopicID)
	}
	return out, nil
}

// LLMRequestRepo reads and appends LLM request events.
type LLMRequestRepo struct {
	rs store.RecordStore
}

// Append stores one LLM request event.
func (r *LLMRequestRepo) Append(ctx context.Context, req LLMRequest) error {
	if err := r.rs.Append(ctx, TableLLMRequests, req.toRow()); err != nil {
		return fmt.Errorf("append llm request: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 means all.
func (r *LLMRequestRepo) Recent(ctx context.Context, limit int) ([]LLMRequest, error) {
	rows, err := r.rs.ReadAll(ctx, TableLLMRequests)
	if err != nil {
		return nil, fmt.Errorf("read llm requests: %w", err)
	}
	out := make([]LLMRequest, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, llmRequestFromRow(rows[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
