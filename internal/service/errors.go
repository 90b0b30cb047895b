package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	StatusCode int
	Wrapped    error
}

func (e *HTTPError) Error() string {
	return e.Wrapped.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Wrapped
}

func httpError(statusCode int, err error) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Wrapped:    err,
	}
}

// StatusCode returns the HTTP status carried by err, or fallback.
func StatusCode(err error, fallback int) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return fallback
}

// requestError maps normalization and cancellation errors to HTTP errors.
func requestError(err error) error {
	switch {
	case errors.Is(err, core.ErrUnrecognizedCategory):
		return httpError(http.StatusUnprocessableEntity, err)
	case errors.Is(err, core.ErrEmptyReason):
		return httpError(http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return httpError(http.StatusServiceUnavailable, err)
	default:
		return httpError(http.StatusInternalServerError, err)
	}
}
