package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/trendcast/internal/adapters/dataset"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// StatusError carries the HTTP status a failure should be answered with.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error { return e.Err }

// WithStatus wraps err so the handlers answer with status.
func WithStatus(status int, err error) error {
	return &StatusError{Status: status, Err: err}
}

// badRequest wraps a decode or validation failure in ErrBadRequest.
func badRequest(err error) error {
	return WithStatus(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
}

// statusFor maps err to a status. A missing dataset gets notFound, which
// differs per endpoint; every other failure is a 400.
func statusFor(err error, notFound int) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, dataset.ErrNotFound):
		return notFound
	default:
		return http.StatusBadRequest
	}
}

// isExpected reports whether err is an input or lookup failure rather than
// something that deserves an error-level log.
func isExpected(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrMethodNotAllowed) ||
		errors.Is(err, sport.ErrInvalidSport) ||
		errors.Is(err, sport.ErrInvalidModel) ||
		errors.Is(err, training.ErrUnsupported) ||
		errors.Is(err, dataset.ErrNotFound)
}
