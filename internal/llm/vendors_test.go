package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

func serveJSON(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func anthropicAgainst(t *testing.T, srv *httptest.Server) Provider {
	t.Helper()
	p, err := NewAnthropicProvider(
		AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"},
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("new anthropic: %v", err)
	}
	return p
}

func openAIAgainst(t *testing.T, srv *httptest.Server) Provider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new openai: %v", err)
	}
	return p
}

func openRouterAgainst(t *testing.T, srv *httptest.Server) Provider {
	t.Helper()
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-exp", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new openrouter: %v", err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func openAICompletion(text, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": text}, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 50, "completion_tokens": 30, "total_tokens": 80},
	}
}

const tutorReply = "Why do you think electrons sit there? [MASTERY_DETECTED]"

func TestVendors_FreeTextReply(t *testing.T) {
	tests := []struct {
		name string
		body any
		make func(*testing.T, *httptest.Server) Provider
	}{
		{"anthropic", anthropicMessage(tutorReply, "end_turn"), anthropicAgainst},
		{"openai", openAICompletion(tutorReply, "stop"), openAIAgainst},
		{"openrouter", openAICompletion(tutorReply, "stop"), openRouterAgainst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.make(t, serveJSON(t, http.StatusOK, tt.body))
			resp, err := p.Generate(context.Background(), Request{
				System:    "You are a Socratic science tutor.",
				Messages:  []Message{{Role: RoleUser, Content: "I picked the nucleus."}},
				MaxTokens: 256,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Text() != tutorReply {
				t.Errorf("text = %q", resp.Text())
			}
			if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 30 {
				t.Errorf("usage = %+v", resp.Usage)
			}
			if resp.StopReason != "end" {
				t.Errorf("stop reason = %q", resp.StopReason)
			}
		})
	}
}

func TestVendors_StatusMapping(t *testing.T) {
	anthropicErr := map[string]any{"type": "error", "error": map[string]any{"type": "api_error", "message": "nope"}}
	openAIErr := map[string]any{"error": map[string]any{"type": "server_error", "message": "nope"}}

	tests := []struct {
		name      string
		status    int
		body      any
		make      func(*testing.T, *httptest.Server) Provider
		rateLimit bool
	}{
		{"anthropic 429", http.StatusTooManyRequests, anthropicErr, anthropicAgainst, true},
		{"anthropic 500", http.StatusInternalServerError, anthropicErr, anthropicAgainst, false},
		{"openai 429", http.StatusTooManyRequests, openAIErr, openAIAgainst, true},
		{"openai 503", http.StatusServiceUnavailable, openAIErr, openAIAgainst, false},
		{"openai 401", http.StatusUnauthorized, openAIErr, openAIAgainst, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.make(t, serveJSON(t, tt.status, tt.body))
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			var rl *ErrRateLimit
			var unavail *ErrProviderUnavailable
			switch {
			case tt.rateLimit && !errors.As(err, &rl):
				t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
			case !tt.rateLimit && !errors.As(err, &unavail):
				t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
			case !tt.rateLimit && unavail.Status != tt.status:
				t.Fatalf("status = %d, want %d", unavail.Status, tt.status)
			}
		})
	}
}

func TestVendors_StructuredOutputTruncated(t *testing.T) {
	p := openAIAgainst(t, serveJSON(t, http.StatusOK, openAICompletion(`{"hint":"Thi`, "length")))
	_, err := p.Generate(context.Background(), Request{Schema: testSchema(), MaxTokens: 5})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
	}
}

func TestOpenAIResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletionResponse
	}{
		{"no choices", openai.ChatCompletionResponse{}},
		{"refusal", openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Refusal: "I can't help with that."}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openAIResponse(tt.resp, nil)
			var invalid *ErrInvalidResponse
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidResponse, got: %v", err)
			}
		})
	}
}

func TestOpenAIResponse_LengthWithoutSchema(t *testing.T) {
	resp := openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: "Think about"}, FinishReason: openai.FinishReasonLength},
	}}
	out, err := openAIResponse(resp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.StopReason != "max_tokens" || string(out.Content) != "Think about" {
		t.Errorf("got stop=%q content=%q", out.StopReason, out.Content)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x"}); err == nil {
		t.Fatal("expected error for empty API key")
	}

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "anthropic/claude-3-haiku"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model = %q, want pass-through", p.ModelID())
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		input  string
		models map[string]string
		want   string
	}{
		{"claude-haiku", anthropicModels, "claude-haiku-4-5-20251001"},
		{"claude-sonnet-4-5", anthropicModels, "claude-sonnet-4-5"},
		{"gemini-flash", geminiModels, "gemini-2.5-flash"},
		{"gemini-2.0-flash", geminiModels, "gemini-2.0-flash"},
		{"gpt-mini", openaiModels, "gpt-4.1-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	schema := geminiSchema(testSchema().Definition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("properties = %d, want 3", len(schema.Properties))
	}
	if schema.Properties["level"].Type != genai.TypeInteger {
		t.Errorf("level type = %s", schema.Properties["level"].Type)
	}
	if got := schema.Properties["tone"].Enum; len(got) != 2 {
		t.Errorf("tone enum = %v", got)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "hint" {
		t.Errorf("required = %v", schema.Required)
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || math.Abs(cost-0.75) > 1e-9 {
		t.Fatalf("cost = %v, %v", cost, ok)
	}
	if _, ok := EstimateCost("google/gemini-2.5-flash", 10, 10); !ok {
		t.Error("vendor-prefixed id should resolve")
	}
	if _, ok := EstimateCost("mock", 10, 10); ok {
		t.Error("mock should be unpriced")
	}
}
