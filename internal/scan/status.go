package scan

import "strings"

// Status is the normalized lifecycle state of a remote scan.
type Status int

const (
	// StatusUnknown means no usable status string was reported.
	StatusUnknown Status = iota
	// StatusPending covers every vocabulary word that is neither
	// terminal success nor terminal failure.
	StatusPending
	// StatusDone is terminal success.
	StatusDone
	// StatusFailed is terminal failure.
	StatusFailed
)

var doneStatuses = map[string]struct{}{
	"done":      {},
	"completed": {},
	"complete":  {},
	"finished":  {},
	"success":   {},
	"succeeded": {},
}

var failStatuses = map[string]struct{}{
	"failed":    {},
	"error":     {},
	"errored":   {},
	"canceled":  {},
	"cancelled": {},
}

// Normalize classifies a raw status string from the service.
func Normalize(raw string) Status {
	norm := strings.ToLower(strings.TrimSpace(raw))
	if norm == "" {
		return StatusUnknown
	}
	if _, ok := doneStatuses[norm]; ok {
		return StatusDone
	}
	if _, ok := failStatuses[norm]; ok {
		return StatusFailed
	}
	return StatusPending
}

// activeStatus reports whether a listed scan should count as still
// running. The vocabulary is narrower than Normalize's on purpose: an
// unrecognized status is treated as active rather than finished.
func activeStatus(status string) bool {
	norm := strings.ToLower(strings.TrimSpace(status))
	if norm == "" {
		return false
	}
	switch norm {
	case "done", "completed", "failed", "error":
		return false
	}
	return true
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
