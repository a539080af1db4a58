package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Call identifies which tutor request failed and against which vendor.
// Vendor adapters leave it empty; LoggingProvider fills it in.
type Call struct {
	Provider string
	Purpose  string
}

func (c Call) String() string {
	switch {
	case c.Purpose != "" && c.Provider != "":
		return c.Purpose + " via " + c.Provider
	case c.Purpose != "":
		return c.Purpose
	case c.Provider != "":
		return c.Provider
	}
	return "llm"
}

// ErrRateLimit is a 429 from the vendor. Retry honours RetryAfter.
type ErrRateLimit struct {
	Call
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	msg := e.Call.String() + ": rate limited"
	if e.RetryAfter > 0 {
		msg += ", retry after " + e.RetryAfter.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is a reply the tutor cannot use: no text, a refusal, or
// structured output that fails the hint schema.
type ErrInvalidResponse struct {
	Call
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("%s: unusable reply: %v", e.Call, e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable means the vendor could not be reached or answered
// with a server error. Status is the HTTP status, 0 when there was none.
type ErrProviderUnavailable struct {
	Call
	Status int
	Err    error
}

func (e *ErrProviderUnavailable) Error() string {
	msg := e.Call.String() + ": tutor model unavailable"
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is a reply cut off at MaxTokens.
type ErrMaxTokensExceeded struct {
	Call
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("%s: reply truncated at max tokens after %d bytes", e.Call, len(e.Content))
}

// classifyStatus turns a vendor SDK error carrying an HTTP status into one
// of the typed errors above. status is 0 when the SDK error had none.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Status: status, Err: err}
}

// stampCall records c on the first typed error in err's chain that has no
// call yet.
func stampCall(err error, c Call) {
	var (
		rl      *ErrRateLimit
		invalid *ErrInvalidResponse
		unavail *ErrProviderUnavailable
		maxTok  *ErrMaxTokensExceeded
		target  *Call
	)
	switch {
	case errors.As(err, &rl):
		target = &rl.Call
	case errors.As(err, &invalid):
		target = &invalid.Call
	case errors.As(err, &unavail):
		target = &unavail.Call
	case errors.As(err, &maxTok):
		target = &maxTok.Call
	default:
		return
	}
	if *target == (Call{}) {
		*target = c
	}
}
