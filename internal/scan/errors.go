package scan

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel markers for lifecycle failures, mirrored by typed errors that
// carry the detail.
var (
	ErrDiscoveryTimeout = errors.New("scan id discovery timed out")
	ErrPollTimeout      = errors.New("scan polling timed out")
	ErrScanFailed       = errors.New("scan failed")
)

// DiscoveryTimeoutError reports that no new scan id appeared in the
// listing before the deadline. ContentType and Snippet describe the
// creation response that forced discovery in the first place.
type DiscoveryTimeoutError struct {
	Elapsed     time.Duration
	ContentType string
	Snippet     string
}

func (e *DiscoveryTimeoutError) Error() string {
	msg := fmt.Sprintf("timed out waiting to discover scan id after upload (elapsed %s)", e.Elapsed.Round(time.Second))
	if e.ContentType != "" {
		msg += fmt.Sprintf(". Content-Type: %s", e.ContentType)
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(". Response: %s", e.Snippet)
	}
	return msg
}

func (e *DiscoveryTimeoutError) Is(target error) bool { return target == ErrDiscoveryTimeout }

// PollTimeoutError reports that the scan did not reach a terminal state
// before the polling deadline.
type PollTimeoutError struct {
	ScanID     string
	LastStatus string
	Elapsed    time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for scan %s (elapsed %s, last status %q)",
		e.ScanID, e.Elapsed.Round(time.Second), e.LastStatus)
}

func (e *PollTimeoutError) Is(target error) bool { return target == ErrPollTimeout }

// ScanFailedError reports a terminal failure status from the service.
type ScanFailedError struct {
	ScanID string
	Status string
}

func (e *ScanFailedError) Error() string {
	return fmt.Sprintf("scan %s failed: status=%s", e.ScanID, e.Status)
}

func (e *ScanFailedError) Is(target error) bool { return target == ErrScanFailed }
