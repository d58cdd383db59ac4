package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("session expired, please log in again")

	// Transport and API errors
	ErrNetwork           = fmt.Errorf("network failure")
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrMalformedResponse = fmt.Errorf("unexpected response shape")
	ErrNotFound          = fmt.Errorf("not found")

	// Local state errors
	ErrAlreadyInProgress = fmt.Errorf("already in progress")
	ErrRecordConflict    = fmt.Errorf("another change to this recipe is in flight")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// HTTPError is a non-2xx response from the recipe service.
//
// It matches [ErrAPIRequest] with [errors.Is], and [ErrNotFound] when the status is 404.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: status %d", ErrAPIRequest, e.Status)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrAPIRequest, e.Status, e.Detail)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrAPIRequest:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Reason returns the human-readable reason carried by err.
//
// Server-reported details are returned verbatim; everything else falls back to the error text.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Detail != "" {
			return httpErr.Detail
		}
		return fmt.Sprintf("request failed with status %d", httpErr.Status)
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse.Error()
	case errors.Is(err, ErrAlreadyInProgress):
		return ErrAlreadyInProgress.Error()
	}

	return err.Error()
}

// IsRetryable reports whether repeating the same operation may succeed.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500 || httpErr.Status == http.StatusTooManyRequests || httpErr.Status == http.StatusRequestTimeout
	}

	return false
}
