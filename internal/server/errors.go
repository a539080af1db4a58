package server

import (
	"errors"
	"net/http"

	"github.com/abhisek/tierlab/internal/assessment"
)

// statusFor maps a lifecycle error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assessment.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, assessment.ErrDuplicateSubmission),
		errors.Is(err, assessment.ErrMasteryNotDetected),
		errors.Is(err, assessment.ErrNoActiveSession),
		errors.Is(err, assessment.ErrNotRevised):
		return http.StatusConflict
	case errors.Is(err, assessment.ErrTutoringDisabled):
		return http.StatusForbidden
	case errors.Is(err, assessment.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, assessment.ErrStoreUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// publicMessage hides backend detail for upstream failures.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return assessment.ErrServiceUnavailable.Error()
	case http.StatusBadGateway:
		return assessment.ErrStoreUnavailable.Error()
	case http.StatusInternalServerError:
		return http.StatusText(status)
	}
	return err.Error()
}
