package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SOURCESCAN_BASE_URL", "https://api.example.com/api/v3")
	t.Setenv("SOURCESCAN_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("config file should not exist")
	}
	if resolved != path {
		t.Errorf("resolved path %q, want %q", resolved, path)
	}
	if cfg.API.APIKeyHeader != "Authorization" || cfg.API.APIKeyPrefix != "Bearer " {
		t.Errorf("auth defaults: header %q prefix %q", cfg.API.APIKeyHeader, cfg.API.APIKeyPrefix)
	}
	if cfg.Scan.UploadPath != "/scans" || cfg.Scan.UploadFileField != "file" {
		t.Errorf("scan defaults: %+v", cfg.Scan)
	}
	if cfg.Polling.Interval != 3.0 || cfg.Polling.Timeout != 600.0 {
		t.Errorf("polling defaults: %+v", cfg.Polling)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.Delay != 30.0 {
		t.Errorf("retry defaults: %+v", cfg.Retry)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) || !filepath.IsAbs(cfg.Paths.LogDir) {
		t.Errorf("paths not expanded: %+v", cfg.Paths)
	}
}

func TestLoadParsesFileAndOverridesDefaults(t *testing.T) {
	t.Setenv("SOURCESCAN_BASE_URL", "")
	t.Setenv("SOURCESCAN_API_KEY", "")
	t.Setenv("API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://api.example.com/api/v3/"
api_key = "file-key"
api_key_header = "X-Api-Key"
api_key_prefix = ""

[polling]
interval = 0.5
timeout = 10.0

[discovery]
strict_names = true

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.API.BaseURL != "https://api.example.com/api/v3" {
		t.Errorf("base url not trimmed: %q", cfg.API.BaseURL)
	}
	if cfg.API.APIKey != "file-key" || cfg.API.APIKeyHeader != "X-Api-Key" {
		t.Errorf("api settings: %+v", cfg.API)
	}
	if cfg.Polling.Interval != 0.5 || cfg.Polling.Timeout != 10.0 {
		t.Errorf("polling: %+v", cfg.Polling)
	}
	if !cfg.Discovery.StrictNames {
		t.Error("strict_names not loaded")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging: %+v", cfg.Logging)
	}
}

func TestLoadEnvFallbackForCredentials(t *testing.T) {
	t.Setenv("SOURCESCAN_BASE_URL", "https://api.example.com")
	t.Setenv("SOURCESCAN_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.APIKey != "legacy-key" {
		t.Errorf("API_KEY fallback not applied: %q", cfg.API.APIKey)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	t.Setenv("SOURCESCAN_BASE_URL", "")
	t.Setenv("SOURCESCAN_API_KEY", "")
	t.Setenv("API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	_, _, _, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "api.base_url") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestValidateRejectsBadPayloadTemplate(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://api.example.com"
	cfg.API.APIKey = "k"
	cfg.Scan.PayloadTemplate = `{"mapping":`
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateRejectsTemplatesWithoutPlaceholder(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://api.example.com"
	cfg.API.APIKey = "k"
	cfg.Scan.StatusPathTemplate = "/scans/latest"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNormalizeLoggingFallsBackToConsole(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "YAML"
	cfg.normalizeLogging()
	if cfg.Logging.Format != "console" {
		t.Errorf("format %q", cfg.Logging.Format)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("SOURCESCAN_BASE_URL", "https://api.example.com")
	t.Setenv("SOURCESCAN_API_KEY", "sample-key")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample file should exist")
	}
	if cfg.Scan.PayloadTemplate == "" {
		t.Error("sample payload template empty")
	}
}
