package unsplash

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCredentials reports a missing access key or a 401 from the provider.
	// It is never retried.
	ErrCredentials = errors.New("unsplash: credentials rejected")
	// ErrRateLimited reports that the provider refused the request because the
	// hourly quota is spent (429, or Unsplash's 403 variant).
	ErrRateLimited = errors.New("unsplash: rate limited")
	// ErrInterrupted reports that the caller's context ended while a request,
	// a backoff delay or a rate window wait was in progress.
	ErrInterrupted = errors.New("unsplash: interrupted")
)

// StatusError captures a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unsplash: status %d", e.StatusCode)
	}
	return fmt.Sprintf("unsplash: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps provider status codes onto the package sentinels so callers can
// use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrCredentials
	case http.StatusTooManyRequests, http.StatusForbidden:
		return ErrRateLimited
	default:
		return nil
	}
}
