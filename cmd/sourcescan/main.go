package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sourcescan/internal/config"
	"sourcescan/internal/scan"
	"sourcescan/internal/scanapi"
)

// Exit codes, one per failure class, so wrapping automation can branch
// without parsing error text.
const (
	exitConfig            = 2
	exitRequestFailed     = 3
	exitResponseMalformed = 4
	exitScanInProgress    = 5
	exitRateLimited       = 6
	exitDiscoveryTimeout  = 7
	exitPollTimeout       = 8
	exitScanFailed        = 9
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return exitConfig
	case errors.Is(err, scanapi.ErrScanInProgress):
		return exitScanInProgress
	case errors.Is(err, scanapi.ErrRateLimited):
		return exitRateLimited
	case errors.Is(err, scan.ErrDiscoveryTimeout):
		return exitDiscoveryTimeout
	case errors.Is(err, scan.ErrPollTimeout):
		return exitPollTimeout
	case errors.Is(err, scan.ErrScanFailed):
		return exitScanFailed
	case errors.Is(err, scanapi.ErrResponseMalformed):
		return exitResponseMalformed
	case errors.Is(err, scanapi.ErrRequestFailed):
		return exitRequestFailed
	default:
		return 1
	}
}
