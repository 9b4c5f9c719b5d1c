package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrRequestTimeout   = errors.New("request timeout")
	ErrUnknownService   = errors.New("unknown service")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUpstreamStatus   = errors.New("upstream returned an error status")
	ErrUpstreamBody     = errors.New("upstream response could not be decoded")

	// Auth-related errors
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// UpstreamStatusError is returned for a non-2xx upstream response.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamStatusError) Unwrap() error {
	return ErrUpstreamStatus
}
