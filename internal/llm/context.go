package llm

import "context"

type purposeKey struct{}

// Purposes used by tierlab callers. They label LLMRequests rows and metrics.
const (
	PurposeTutorReply = "tutor-reply"
	PurposeTutorHint  = "tutor-hint"
)

// WithPurpose attaches a purpose label to ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom extracts the purpose label from ctx, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
