package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tierlab/internal/records"
)

// EventSink persists one row per LLM call. records.LLMRequestRepo
// satisfies it.
type EventSink interface {
	Append(ctx context.Context, req records.LLMRequest) error
}

// LoggingProvider records every call to the event sink, the zap logger and
// the Prometheus collectors.
type LoggingProvider struct {
	inner  Provider
	vendor string
	sink   EventSink
	log    *zap.Logger
}

// WithLogging wraps p. vendor is the provider name stored with each event.
// A nil sink only logs.
func WithLogging(p Provider, vendor string, sink EventSink, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, vendor: vendor, sink: sink, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	elapsed := time.Since(start)
	event := records.LLMRequest{
		Provider:  l.vendor,
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: elapsed.Milliseconds(),
		Success:   err == nil,
		Timestamp: start.UTC(),
	}
	if resp != nil {
		event.InputTokens = resp.Usage.InputTokens
		event.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			event.Model = resp.Model
		}
	}

	result := "success"
	if err != nil {
		stampCall(err, Call{Provider: l.vendor, Purpose: purpose})
		result = "error"
		event.ErrorMessage = err.Error()
	}
	RequestsTotal.WithLabelValues(purpose, result).Inc()
	RequestDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
	TokensTotal.WithLabelValues("input").Add(float64(event.InputTokens))
	TokensTotal.WithLabelValues("output").Add(float64(event.OutputTokens))

	fields := []zap.Field{
		zap.String("provider", event.Provider),
		zap.String("model", event.Model),
		zap.String("purpose", purpose),
		zap.Int64("latency_ms", event.LatencyMs),
		zap.Int("input_tokens", event.InputTokens),
		zap.Int("output_tokens", event.OutputTokens),
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("llm request", fields...)
	}

	// A failed event write never fails the request.
	if l.sink != nil {
		if sinkErr := l.sink.Append(context.WithoutCancel(ctx), event); sinkErr != nil {
			l.log.Warn("failed to record llm request", zap.Error(sinkErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
