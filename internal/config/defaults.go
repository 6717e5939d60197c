package config

const (
	defaultAPIKeyHeader   = "Authorization"
	defaultAPIKeyPrefix   = "Bearer "
	defaultRequestTimeout = 120.0
	defaultResultTimeout  = 300.0

	defaultUploadPath      = "/scans"
	defaultUploadFileField = "file"
	defaultScanPath        = "/scans"
	defaultPayloadTemplate = `{"mapping":{"id":0,"cost":1},"options":{"marketplace_id":"US","name":"Automated Scan"}}`
	defaultStatusPath      = "/scans/{scan_id}"
	defaultResultsPath     = "/scans/{scan_id}/download?type=csv"

	defaultPollInterval = 3.0
	defaultPollTimeout  = 600.0

	defaultRetryMaxAttempts = 3
	defaultRetryDelay       = 30.0

	defaultDataDir = "~/.local/share/sourcescan/data"
	defaultLogDir  = "~/.local/share/sourcescan/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			APIKeyHeader:   defaultAPIKeyHeader,
			APIKeyPrefix:   defaultAPIKeyPrefix,
			RequestTimeout: defaultRequestTimeout,
			ResultTimeout:  defaultResultTimeout,
		},
		Scan: Scan{
			UploadPath:          defaultUploadPath,
			UploadFileField:     defaultUploadFileField,
			ScanPath:            defaultScanPath,
			PayloadTemplate:     defaultPayloadTemplate,
			StatusPathTemplate:  defaultStatusPath,
			ResultsPathTemplate: defaultResultsPath,
		},
		Polling: Polling{
			Interval: defaultPollInterval,
			Timeout:  defaultPollTimeout,
		},
		Retry: Retry{
			MaxAttempts:       defaultRetryMaxAttempts,
			Delay:             defaultRetryDelay,
			RateLimitStatuses: []int{429},
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
