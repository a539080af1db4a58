package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tierlab/internal/llm"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("tutor returned an empty reply")

// Service generates tutor turns over an llm.Provider. It holds no
// conversation state; callers pass the full history on every call.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a tutor over provider.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Reply returns the model's next tutor turn for the dialogue, unmodified.
// The mastery marker, if present, is left in place for the caller.
func (s *Service) Reply(ctx context.Context, seed Seed, turns []Turn) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutorReply)

	req := llm.Request{
		System:      buildPreamble(seed),
		Messages:    toMessages(s.window(turns)),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tutor reply: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

type hintOutput struct {
	Hint string `json:"hint"`
}

// Hint returns a short nudge for a student who is stuck.
func (s *Service) Hint(ctx context.Context, seed Seed, turns []Turn) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutorHint)

	req := llm.Request{
		System: hintRole,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildHintMessage(seed, s.window(turns))},
		},
		Schema:      HintSchema,
		MaxTokens:   s.cfg.HintMaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tutor hint: %w", err)
	}

	var out hintOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse hint response: %w", err)
	}
	// A hint must never end a dialogue.
	hint := strings.TrimSpace(strings.ReplaceAll(out.Hint, MasteryMarker, ""))
	if hint == "" {
		return "", ErrEmptyReply
	}
	return hint, nil
}

// window trims turns to the configured history length. The kept slice
// always opens with a student turn.
func (s *Service) window(turns []Turn) []Turn {
	if s.cfg.MaxHistory <= 0 || len(turns) <= s.cfg.MaxHistory {
		return turns
	}
	kept := turns[len(turns)-s.cfg.MaxHistory:]
	for len(kept) > 1 && kept[0].Role == RoleTutor {
		kept = kept[1:]
	}
	return kept
}

// toMessages maps turns onto chat messages. Blank turns are dropped since
// some vendors reject empty content blocks.
func toMessages(turns []Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := llm.RoleUser
		if t.Role == RoleTutor {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	return msgs
}
