package scanapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel markers for error classification via errors.Is. The typed
// errors below attach themselves to a marker through an Is hook so
// callers can branch on the class without losing the detail fields.
var (
	ErrRequestFailed     = errors.New("api request failed")
	ErrResponseMalformed = errors.New("api response malformed")
	ErrScanInProgress    = errors.New("scan already in progress")
	ErrRateLimited       = errors.New("rate limited")
)

// RequestError reports a transport failure or an unexpected HTTP status.
type RequestError struct {
	Status  int
	Method  string
	URL     string
	Allow   string
	Snippet string
	cause   error
}

func (e *RequestError) Error() string {
	var sb strings.Builder
	if e.Status > 0 {
		fmt.Fprintf(&sb, "HTTP %d", e.Status)
		if e.Method != "" && e.URL != "" {
			fmt.Fprintf(&sb, " %s %s", e.Method, e.URL)
		} else if e.URL != "" {
			fmt.Fprintf(&sb, " %s", e.URL)
		}
	} else {
		fmt.Fprintf(&sb, "%s %s", e.Method, e.URL)
		if e.cause != nil {
			fmt.Fprintf(&sb, ": %v", e.cause)
		}
		return sb.String()
	}
	if e.Allow != "" {
		fmt.Fprintf(&sb, " (Allow: %s)", e.Allow)
	}
	if e.Snippet != "" {
		fmt.Fprintf(&sb, " response: %s", e.Snippet)
	}
	return sb.String()
}

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

func (e *RequestError) Unwrap() error { return e.cause }

// RateLimitError reports a rate-limited request along with the wait the
// server asked for.
type RateLimitError struct {
	Status     int
	Method     string
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("HTTP %d %s %s: rate limited, retry after %s", e.Status, e.Method, e.URL, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// InProgressError reports the service's concurrent-scan rejection. The
// status code matches rate limiting, but the condition is not transient
// in the same sense and is never retried automatically.
type InProgressError struct {
	Message string
}

func (e *InProgressError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrScanInProgress.Error()
}

func (e *InProgressError) Is(target error) bool { return target == ErrScanInProgress }

// MalformedError reports a response the interpreter could not make sense
// of (missing identifier or status). It indicates an API contract change
// and is never retried.
type MalformedError struct {
	Detail string
}

func (e *MalformedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", ErrResponseMalformed, e.Detail)
	}
	return ErrResponseMalformed.Error()
}

func (e *MalformedError) Is(target error) bool { return target == ErrResponseMalformed }
