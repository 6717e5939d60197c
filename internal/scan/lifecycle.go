package scan

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourcescan/internal/jsonx"
	"sourcescan/internal/scanapi"
)

// Result is the raw result payload fetched for a finished scan.
type Result struct {
	ContentType string
	Body        []byte
}

// Outcome summarizes a completed lifecycle run.
type Outcome struct {
	UploadID    string
	ScanID      string
	FinalStatus string
	Result      Result
}

// Run executes the full lifecycle for one input CSV: submit, discover
// the scan id, poll to completion, and fetch results.
func (c *Client) Run(ctx context.Context, csvPath string) (*Outcome, error) {
	if active, err := c.ActiveScans(ctx); err != nil {
		c.log.Debug("failed to check existing scans", "error", err)
	} else if len(active) > 0 {
		c.log.Warn("active scans found before starting", "count", len(active))
		for _, summary := range active {
			c.log.Warn("active scan", "scan_id", summary.ID, "status", summary.Status)
		}
	}

	c.log.Info("starting scan", "input", csvPath)

	var scanID, uploadID string
	var err error
	if c.legacyMode() {
		uploadID, err = c.UploadCSV(ctx, csvPath)
		if err != nil {
			return nil, err
		}
		scanID, err = c.StartScan(ctx, uploadID)
		if err != nil {
			return nil, err
		}
	} else {
		scanID, err = c.CreateScan(ctx, csvPath)
		if err != nil {
			return nil, err
		}
		uploadID = scanID
	}
	c.log.Info("scan created", "upload_id", uploadID, "scan_id", scanID)

	finalStatus, err := c.Poll(ctx, scanID)
	if err != nil {
		return nil, err
	}

	result, err := c.FetchResults(ctx, scanID)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		UploadID:    uploadID,
		ScanID:      scanID,
		FinalStatus: finalStatus,
		Result:      result,
	}, nil
}

// CreateScan submits the CSV in a single multipart request and returns
// the new scan id, discovering it from the listing when the creation
// response carries no identifier.
func (c *Client) CreateScan(ctx context.Context, csvPath string) (string, error) {
	attrs, err := jsonx.DecodeString(c.cfg.Scan.PayloadTemplate)
	if err != nil {
		return "", fmt.Errorf("scan: payload template: %w", err)
	}

	scanName := payloadName(attrs)
	if c.cfg.Discovery.StrictNames && scanName == "" {
		scanName = "sourcescan-" + uuid.NewString()
		setPayloadName(&attrs, scanName)
		c.log.Debug("injected generated scan name", "name", scanName)
	}

	// Baseline snapshot so a bare "ok" creation response can still be
	// resolved by diffing the listing. Best effort only.
	baseline := map[string]struct{}{}
	if items, err := c.listScans(ctx); err == nil {
		for _, item := range items {
			if id, ok := scanapi.FirstID(item, creationIDKeys); ok {
				baseline[id] = struct{}{}
			}
		}
	}

	content, err := os.ReadFile(csvPath)
	if err != nil {
		return "", fmt.Errorf("scan: read input: %w", err)
	}
	file := scanapi.FilePart{
		FieldName:   c.cfg.Scan.UploadFileField,
		FileName:    filepath.Base(csvPath),
		ContentType: "text/csv",
		Content:     content,
	}
	fields := map[string]string{"attributes": attrs.JSON()}

	resp, err := c.withRateLimitRetry(ctx, "create_scan", func() (*scanapi.Response, error) {
		return c.transport.PostMultipart(ctx, "/scans", file, fields)
	})
	if err != nil {
		return "", err
	}
	return c.scanIDFromCreation(ctx, resp, scanName, baseline)
}

func (c *Client) scanIDFromCreation(ctx context.Context, resp *scanapi.Response, scanName string, baseline map[string]struct{}) (string, error) {
	if id, ok := scanapi.IDFromHeaders(resp.Header); ok {
		return id, nil
	}
	if data, err := resp.JSON(); err == nil {
		if id, ok := scanapi.FirstID(data, creationIDKeys); ok {
			return id, nil
		}
	}
	return c.discoverScanID(ctx, scanName, baseline, resp)
}

// discoverScanID polls the listing for a scan that is not in the
// baseline snapshot, optionally matching the payload's scan name. At
// least one listing attempt happens before the deadline is enforced.
func (c *Client) discoverScanID(ctx context.Context, scanName string, baseline map[string]struct{}, created *scanapi.Response) (string, error) {
	start := time.Now()
	timeout := seconds(c.cfg.Polling.Timeout)

	for attempt := 1; ; attempt++ {
		items, err := c.listScans(ctx)
		if err != nil {
			c.log.Debug("failed to list scans during discovery", "error", err)
		}
		for _, item := range items {
			id, ok := scanapi.FirstID(item, creationIDKeys)
			if !ok {
				continue
			}
			if len(baseline) > 0 {
				if _, seen := baseline[id]; seen {
					continue
				}
			}
			if scanName != "" {
				if name, _ := scanapi.ScanName(item); name != strings.TrimSpace(scanName) {
					continue
				}
			}
			return id, nil
		}

		elapsed := time.Since(start)
		if attempt == 1 || attempt%10 == 0 {
			c.log.Info("waiting to discover scan id", "elapsed", elapsed.Round(time.Second))
		}
		if elapsed > timeout {
			return "", &DiscoveryTimeoutError{
				Elapsed:     elapsed,
				ContentType: created.Header.Get("Content-Type"),
				Snippet:     snippet(created.Body),
			}
		}
		if err := sleepContext(ctx, seconds(c.cfg.Polling.Interval)); err != nil {
			return "", err
		}
	}
}

// UploadCSV uploads the input file for the legacy two-step flow and
// returns the upload id.
func (c *Client) UploadCSV(ctx context.Context, csvPath string) (string, error) {
	content, err := os.ReadFile(csvPath)
	if err != nil {
		return "", fmt.Errorf("scan: read input: %w", err)
	}
	file := scanapi.FilePart{
		FieldName:   c.cfg.Scan.UploadFileField,
		FileName:    filepath.Base(csvPath),
		ContentType: "text/csv",
		Content:     content,
	}
	fields := map[string]string{}
	if strings.TrimRight(c.cfg.Scan.UploadPath, "/") == "/scans" {
		attrs, err := jsonx.DecodeString(c.cfg.Scan.PayloadTemplate)
		if err != nil {
			return "", fmt.Errorf("scan: payload template: %w", err)
		}
		fields["attributes"] = attrs.JSON()
	}

	resp, err := c.withRateLimitRetry(ctx, "upload_csv", func() (*scanapi.Response, error) {
		return c.transport.PostMultipart(ctx, c.cfg.Scan.UploadPath, file, fields)
	})
	if err != nil {
		return "", err
	}
	return extractUploadID(resp)
}

func extractUploadID(resp *scanapi.Response) (string, error) {
	data, err := resp.JSON()
	if err != nil {
		return "", err
	}
	if id, ok := scanapi.FirstID(data, uploadIDKeys); ok {
		return id, nil
	}
	if id, ok := scanapi.IDFromHeaders(resp.Header); ok {
		return id, nil
	}
	if id, ok := scanapi.IDFromLocation(resp.Header); ok {
		return id, nil
	}

	detail := "upload succeeded but upload_id was not found in response"
	if contentType := strings.TrimSpace(resp.Header.Get("Content-Type")); contentType != "" {
		detail += ". Content-Type: " + contentType
	}
	if location := strings.TrimSpace(resp.Header.Get("Location")); location != "" {
		detail += ". Location: " + location
	}
	if text := snippet(resp.Body); text != "" {
		detail += ". Response: " + text
	}
	return "", &scanapi.MalformedError{Detail: detail}
}

// StartScan starts processing for an uploaded file in the legacy flow.
func (c *Client) StartScan(ctx context.Context, uploadID string) (string, error) {
	payload := strings.ReplaceAll(c.cfg.Scan.PayloadTemplate, "{upload_id}", uploadID)
	resp, err := c.transport.PostJSON(ctx, c.cfg.Scan.ScanPath, []byte(payload))
	if err != nil {
		return "", err
	}
	data, err := resp.JSON()
	if err != nil {
		return "", err
	}
	if id, ok := scanapi.FirstID(data, startIDKeys); ok {
		return id, nil
	}
	return "", &scanapi.MalformedError{Detail: "scan start succeeded but scan_id was not found in response"}
}

// Poll checks scan status until a terminal state or the deadline. Each
// iteration performs the status request before evaluating the deadline,
// so even a zero timeout observes the remote state once.
func (c *Client) Poll(ctx context.Context, scanID string) (string, error) {
	start := time.Now()
	timeout := seconds(c.cfg.Polling.Timeout)
	var lastStatus string
	var hadStatus bool

	for attempt := 1; ; attempt++ {
		resp, err := c.transport.Get(ctx, statusPath(c.cfg.Scan.StatusPathTemplate, scanID))
		if err != nil {
			return "", err
		}
		data, err := resp.JSON()
		if err != nil {
			return "", err
		}

		status, ok := scanapi.StatusField(data)
		prevStatus, hadPrev := lastStatus, hadStatus
		lastStatus, hadStatus = status, ok

		elapsed := time.Since(start)
		switch {
		case ok && strings.TrimSpace(status) != "" && (!hadPrev || status != prevStatus):
			c.log.Info("scan status changed", "scan_id", scanID, "status", status, "elapsed", elapsed.Round(time.Second))
		case ok && strings.TrimSpace(status) != "" && attempt%10 == 0:
			c.log.Info("scan status unchanged", "scan_id", scanID, "status", status, "elapsed", elapsed.Round(time.Second))
		case !ok && (attempt == 1 || attempt%10 == 0):
			c.log.Info("scan status not reported yet", "scan_id", scanID, "elapsed", elapsed.Round(time.Second))
		}

		if ok {
			switch Normalize(status) {
			case StatusDone:
				return status, nil
			case StatusFailed:
				return status, &ScanFailedError{ScanID: scanID, Status: status}
			}
		}

		if elapsed > timeout {
			return lastStatus, &PollTimeoutError{ScanID: scanID, LastStatus: lastStatus, Elapsed: elapsed}
		}
		if err := sleepContext(ctx, seconds(c.cfg.Polling.Interval)); err != nil {
			return "", err
		}
	}
}

// FetchResults downloads the result payload for a finished scan.
// Download-style endpoints use POST; everything else uses GET.
func (c *Client) FetchResults(ctx context.Context, scanID string) (Result, error) {
	path := statusPath(c.cfg.Scan.ResultsPathTemplate, scanID)
	method := http.MethodGet
	if strings.Contains(c.cfg.Scan.ResultsPathTemplate, "/download") {
		method = http.MethodPost
	}
	resp, err := c.transport.Download(ctx, method, path)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// OverridePayloadName returns the payload template with options.name
// replaced, preserving the rest of the template untouched.
func OverridePayloadName(template, name string) (string, error) {
	attrs, err := jsonx.DecodeString(template)
	if err != nil {
		return "", fmt.Errorf("scan: payload template: %w", err)
	}
	setPayloadName(&attrs, name)
	return attrs.JSON(), nil
}

// payloadName reads options.name from the creation payload.
func payloadName(attrs jsonx.Value) string {
	if !attrs.IsObject() {
		return ""
	}
	options, ok := attrs.Get("options")
	if !ok || !options.IsObject() {
		return ""
	}
	name, _ := options.StringAt("name")
	return name
}

// setPayloadName writes options.name in place, creating the options
// object when missing.
func setPayloadName(attrs *jsonx.Value, name string) {
	if attrs.Kind != jsonx.Object {
		return
	}
	for i := range attrs.Obj {
		if attrs.Obj[i].Key != "options" {
			continue
		}
		options := &attrs.Obj[i].Value
		if options.Kind != jsonx.Object {
			return
		}
		for j := range options.Obj {
			if options.Obj[j].Key == "name" {
				options.Obj[j].Value = jsonx.StringValue(name)
				return
			}
		}
		options.Obj = append(options.Obj, jsonx.Member{Key: "name", Value: jsonx.StringValue(name)})
		return
	}
	attrs.Obj = append(attrs.Obj, jsonx.Member{
		Key: "options",
		Value: jsonx.Value{Kind: jsonx.Object, Obj: []jsonx.Member{
			{Key: "name", Value: jsonx.StringValue(name)},
		}},
	})
}
