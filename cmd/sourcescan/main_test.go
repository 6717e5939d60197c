package main

import (
	"errors"
	"fmt"
	"testing"

	"sourcescan/internal/config"
	"sourcescan/internal/scan"
	"sourcescan/internal/scanapi"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load config: %w", config.ErrInvalid), exitConfig},
		{&scanapi.RequestError{Status: 500, Method: "GET", URL: "u"}, exitRequestFailed},
		{&scanapi.MalformedError{Detail: "no id"}, exitResponseMalformed},
		{&scanapi.InProgressError{}, exitScanInProgress},
		{&scanapi.RateLimitError{Status: 429}, exitRateLimited},
		{&scan.DiscoveryTimeoutError{}, exitDiscoveryTimeout},
		{&scan.PollTimeoutError{ScanID: "s"}, exitPollTimeout},
		{&scan.ScanFailedError{ScanID: "s", Status: "error"}, exitScanFailed},
		{errors.New("something else"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestTitleStatus(t *testing.T) {
	cases := map[string]string{
		"done":        "Done",
		"IN PROGRESS": "In Progress",
		" running ":   "Running",
		"":            "-",
		"   ":         "-",
	}
	for raw, want := range cases {
		if got := titleStatus(raw); got != want {
			t.Errorf("titleStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestRedactKey(t *testing.T) {
	if got := redactKey(""); got != "(unset)" {
		t.Errorf("empty key: %q", got)
	}
	if got := redactKey("short"); got != "********" {
		t.Errorf("short key: %q", got)
	}
	long := redactKey("sk-abcdefghijklmnop")
	if long != "sk-a...****" {
		t.Errorf("long key: %q", long)
	}
}
