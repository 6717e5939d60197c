package scan

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"done", StatusDone},
		{"Completed", StatusDone},
		{"COMPLETE", StatusDone},
		{"finished", StatusDone},
		{"success", StatusDone},
		{"succeeded", StatusDone},
		{"failed", StatusFailed},
		{"error", StatusFailed},
		{"errored", StatusFailed},
		{"canceled", StatusFailed},
		{"cancelled", StatusFailed},
		{"running", StatusPending},
		{"queued", StatusPending},
		{"anything else", StatusPending},
		{"", StatusUnknown},
		{"   ", StatusUnknown},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Errorf("Normalize(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestActiveStatus(t *testing.T) {
	for _, status := range []string{"running", "queued", "processing", "weird"} {
		if !activeStatus(status) {
			t.Errorf("%q should be active", status)
		}
	}
	for _, status := range []string{"done", "Completed", "failed", "ERROR", "", "  "} {
		if activeStatus(status) {
			t.Errorf("%q should not be active", status)
		}
	}
}
