package scan

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sourcescan/internal/config"
	"sourcescan/internal/jsonx"
	"sourcescan/internal/scanapi"
)

// Identifier keys searched in each payload shape. The orders differ
// between operations because the service nests responses differently.
var (
	creationIDKeys = []string{"id", "scan_id", "scanId"}
	uploadIDKeys   = []string{"upload_id", "file_id", "id", "uploadId", "fileId", "scan_id", "scanId"}
	startIDKeys    = []string{"scan_id", "job_id", "id", "scanId", "jobId"}
)

// Client runs the scan lifecycle against the configured service.
type Client struct {
	cfg       *config.Config
	transport *scanapi.Transport
	log       *slog.Logger
}

// New builds a Client from validated configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("scan: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport, err := scanapi.NewTransport(scanapi.Options{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.APIKey,
		AuthHeader:        cfg.API.APIKeyHeader,
		AuthPrefix:        cfg.API.APIKeyPrefix,
		RequestTimeout:    seconds(cfg.API.RequestTimeout),
		ResultTimeout:     seconds(cfg.API.ResultTimeout),
		RateLimitStatuses: cfg.Retry.RateLimitStatuses,
	})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, transport: transport, log: logger}, nil
}

// legacyMode reports whether scans are created in two steps (upload then
// start) instead of the unified multipart creation request.
func (c *Client) legacyMode() bool {
	return strings.TrimRight(c.cfg.Scan.UploadPath, "/") != "/scans" ||
		strings.Contains(c.cfg.Scan.PayloadTemplate, "{upload_id}")
}

// ScanSummary is a row from the scan listing.
type ScanSummary struct {
	ID     string
	Name   string
	Status string
}

// ListScans returns every scan on the first listing page.
func (c *Client) ListScans(ctx context.Context) ([]ScanSummary, error) {
	items, err := c.listScans(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ScanSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, summarize(item))
	}
	return summaries, nil
}

// ActiveScans returns the scans that still count as running.
func (c *Client) ActiveScans(ctx context.Context) ([]ScanSummary, error) {
	items, err := c.listScans(ctx)
	if err != nil {
		return nil, err
	}
	var active []ScanSummary
	for _, item := range items {
		summary := summarize(item)
		if activeStatus(summary.Status) {
			active = append(active, summary)
		}
	}
	return active, nil
}

func (c *Client) listScans(ctx context.Context) ([]jsonx.Value, error) {
	resp, err := c.transport.Get(ctx, "/scans?page=1")
	if err != nil {
		return nil, err
	}
	data, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	return scanapi.ScanItems(data), nil
}

func summarize(item jsonx.Value) ScanSummary {
	var summary ScanSummary
	summary.ID, _ = scanapi.FirstID(item, creationIDKeys)
	summary.Name, _ = scanapi.ScanName(item)
	summary.Status, _ = scanapi.ItemStatus(item)
	return summary
}

// logActiveScans reports currently running scans after an in-progress
// rejection. Listing failures here are diagnostic only.
func (c *Client) logActiveScans(ctx context.Context) {
	active, err := c.ActiveScans(ctx)
	if err != nil {
		c.log.Debug("failed to check existing scans", "error", err)
		return
	}
	if len(active) == 0 {
		return
	}
	c.log.Info("cannot start new scan, found active scans", "count", len(active))
	for _, summary := range active {
		c.log.Info("active scan", "scan_id", summary.ID, "status", summary.Status)
	}
}

// withRateLimitRetry runs fn, waiting and retrying on rate-limit errors
// up to the configured attempt budget. Every other failure returns
// immediately.
func (c *Client) withRateLimitRetry(ctx context.Context, op string, fn func() (*scanapi.Response, error)) (*scanapi.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		var rateLimited *scanapi.RateLimitError
		if errors.As(err, &rateLimited) && attempt < c.cfg.Retry.MaxAttempts {
			wait := rateLimited.RetryAfter
			if wait <= 0 {
				wait = seconds(c.cfg.Retry.Delay)
			}
			c.log.Warn("rate limited, waiting before retry",
				"op", op, "wait", wait, "attempt", attempt+1, "max_attempts", c.cfg.Retry.MaxAttempts)
			if sleepErr := sleepContext(ctx, wait); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		if errors.Is(err, scanapi.ErrScanInProgress) {
			c.logActiveScans(ctx)
		}
		return nil, err
	}
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 800 {
		text = text[:800]
	}
	return text
}

func statusPath(template, scanID string) string {
	return strings.ReplaceAll(template, "{scan_id}", scanID)
}
