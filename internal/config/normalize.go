package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeAPI(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizePolling()
	c.normalizeRetry()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeAPI() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		if value, ok := os.LookupEnv("SOURCESCAN_BASE_URL"); ok {
			c.API.BaseURL = value
		}
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if strings.TrimSpace(c.API.APIKey) == "" {
		if value, ok := os.LookupEnv("SOURCESCAN_API_KEY"); ok {
			c.API.APIKey = value
		} else if value, ok := os.LookupEnv("API_KEY"); ok {
			c.API.APIKey = value
		}
	}
	c.API.APIKey = strings.TrimSpace(c.API.APIKey)
	c.API.APIKeyHeader = strings.TrimSpace(c.API.APIKeyHeader)
	if c.API.APIKeyHeader == "" {
		c.API.APIKeyHeader = defaultAPIKeyHeader
	}
	// The prefix keeps trailing whitespace ("Bearer ") so no trim here.
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.ResultTimeout <= 0 {
		c.API.ResultTimeout = defaultResultTimeout
	}
	return nil
}

func (c *Config) normalizeScan() {
	c.Scan.UploadPath = strings.TrimSpace(c.Scan.UploadPath)
	if c.Scan.UploadPath == "" {
		c.Scan.UploadPath = defaultUploadPath
	}
	c.Scan.UploadFileField = strings.TrimSpace(c.Scan.UploadFileField)
	if c.Scan.UploadFileField == "" {
		c.Scan.UploadFileField = defaultUploadFileField
	}
	c.Scan.ScanPath = strings.TrimSpace(c.Scan.ScanPath)
	if c.Scan.ScanPath == "" {
		c.Scan.ScanPath = defaultScanPath
	}
	if strings.TrimSpace(c.Scan.PayloadTemplate) == "" {
		c.Scan.PayloadTemplate = defaultPayloadTemplate
	}
	c.Scan.StatusPathTemplate = strings.TrimSpace(c.Scan.StatusPathTemplate)
	if c.Scan.StatusPathTemplate == "" {
		c.Scan.StatusPathTemplate = defaultStatusPath
	}
	c.Scan.ResultsPathTemplate = strings.TrimSpace(c.Scan.ResultsPathTemplate)
	if c.Scan.ResultsPathTemplate == "" {
		c.Scan.ResultsPathTemplate = defaultResultsPath
	}
}

func (c *Config) normalizePolling() {
	if c.Polling.Interval <= 0 {
		c.Polling.Interval = defaultPollInterval
	}
	if c.Polling.Timeout < 0 {
		c.Polling.Timeout = defaultPollTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts < 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.Delay <= 0 {
		c.Retry.Delay = defaultRetryDelay
	}
	if len(c.Retry.RateLimitStatuses) == 0 {
		c.Retry.RateLimitStatuses = []int{429}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
