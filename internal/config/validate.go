package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/sourcescan/config.toml"
		}
		return fmt.Errorf("%w: api.base_url is required. Set SOURCESCAN_BASE_URL env var or edit %s (create with 'sourcescan config init')", ErrInvalid, defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an absolute URL", ErrInvalid, c.API.BaseURL)
	}
	if c.API.APIKey == "" {
		return fmt.Errorf("%w: api.api_key is required. Set SOURCESCAN_API_KEY env var or edit the config file", ErrInvalid)
	}
	return nil
}

func (c *Config) validateScan() error {
	if !json.Valid([]byte(c.Scan.PayloadTemplate)) {
		return fmt.Errorf("%w: scan.payload_template is not valid JSON", ErrInvalid)
	}
	if !strings.Contains(c.Scan.StatusPathTemplate, "{scan_id}") {
		return fmt.Errorf("%w: scan.status_path_template must contain {scan_id}", ErrInvalid)
	}
	if !strings.Contains(c.Scan.ResultsPathTemplate, "{scan_id}") {
		return fmt.Errorf("%w: scan.results_path_template must contain {scan_id}", ErrInvalid)
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("%w: polling.interval must be positive (seconds)", ErrInvalid)
	}
	if c.Polling.Timeout < 0 {
		return fmt.Errorf("%w: polling.timeout must be >= 0 (seconds)", ErrInvalid)
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: retry.max_attempts must be >= 0", ErrInvalid)
	}
	if c.Retry.Delay <= 0 {
		return fmt.Errorf("%w: retry.delay must be positive (seconds)", ErrInvalid)
	}
	for _, status := range c.Retry.RateLimitStatuses {
		if status < 100 || status > 599 {
			return fmt.Errorf("%w: retry.rate_limit_statuses contains invalid status %d", ErrInvalid, status)
		}
	}
	return nil
}
