package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleStatus renders a raw service status for table output.
func titleStatus(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "-"
	}
	return cases.Title(language.English).String(strings.ToLower(trimmed))
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
