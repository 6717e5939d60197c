package scanapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sourcescan/internal/jsonx"
)

const (
	defaultAuthHeader     = "Authorization"
	defaultAuthPrefix     = "Bearer "
	defaultRequestTimeout = 120 * time.Second
	defaultResultTimeout  = 300 * time.Second
	defaultRetryAfter     = 30 * time.Second

	// Returned by the service on its rate-limit status when a scan is
	// already running for the account.
	inProgressMessage = "You already have a scan in progress."

	snippetLimit = 800
)

// Options configures a Transport.
type Options struct {
	BaseURL           string
	APIKey            string
	AuthHeader        string
	AuthPrefix        string
	RequestTimeout    time.Duration
	ResultTimeout     time.Duration
	RateLimitStatuses []int
	HTTPClient        *http.Client
}

// Transport issues authenticated requests against the scanning service
// and classifies failures into the package error taxonomy.
type Transport struct {
	baseURL           string
	apiKey            string
	authHeader        string
	authPrefix        string
	requestTimeout    time.Duration
	resultTimeout     time.Duration
	rateLimitStatuses map[int]struct{}
	client            *http.Client
}

// NewTransport validates opts and builds a Transport.
func NewTransport(opts Options) (*Transport, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("scanapi: base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("scanapi: base URL %q is not absolute", base)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("scanapi: API key is required")
	}

	t := &Transport{
		baseURL:        strings.TrimRight(base, "/"),
		apiKey:         strings.TrimSpace(opts.APIKey),
		authHeader:     opts.AuthHeader,
		authPrefix:     opts.AuthPrefix,
		requestTimeout: opts.RequestTimeout,
		resultTimeout:  opts.ResultTimeout,
		client:         opts.HTTPClient,
	}
	if t.authHeader == "" {
		t.authHeader = defaultAuthHeader
	}
	if t.authPrefix == "" && t.authHeader == defaultAuthHeader {
		t.authPrefix = defaultAuthPrefix
	}
	if t.requestTimeout <= 0 {
		t.requestTimeout = defaultRequestTimeout
	}
	if t.resultTimeout <= 0 {
		t.resultTimeout = defaultResultTimeout
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	statuses := opts.RateLimitStatuses
	if len(statuses) == 0 {
		statuses = []int{http.StatusTooManyRequests}
	}
	t.rateLimitStatuses = make(map[int]struct{}, len(statuses))
	for _, status := range statuses {
		t.rateLimitStatuses[status] = struct{}{}
	}
	return t, nil
}

// URL joins path onto the base URL. Paths may carry query strings, so
// this is plain string joining rather than URL-escaping path logic.
func (t *Transport) URL(path string) string {
	return t.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Response is a completed 2xx exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body, tagging failures as malformed.
func (r *Response) JSON() (jsonx.Value, error) {
	value, err := jsonx.Decode(r.Body)
	if err != nil {
		return jsonx.Value{}, &MalformedError{Detail: err.Error()}
	}
	return value, nil
}

// Do issues a request with the standard per-request timeout.
func (t *Transport) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	return t.do(ctx, method, path, body, contentType, t.requestTimeout)
}

// Download issues a request with the longer result-fetch timeout.
func (t *Transport) Download(ctx context.Context, method, path string) (*Response, error) {
	return t.do(ctx, method, path, nil, "", t.resultTimeout)
}

func (t *Transport) do(ctx context.Context, method, path string, body io.Reader, contentType string, timeout time.Duration) (*Response, error) {
	requestURL := t.URL(path)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, requestURL, body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: requestURL, cause: err}
	}
	req.Header.Set(t.authHeader, t.authPrefix+t.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, URL: requestURL, cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Status: resp.StatusCode, Method: method, URL: requestURL, cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: payload}, nil
	}

	if _, limited := t.rateLimitStatuses[resp.StatusCode]; limited {
		if msg := conflictMessage(payload); msg != "" {
			return nil, &InProgressError{Message: msg}
		}
		return nil, &RateLimitError{
			Status:     resp.StatusCode,
			Method:     method,
			URL:        requestURL,
			RetryAfter: retryAfterIn(resp.Header),
		}
	}

	return nil, &RequestError{
		Status:  resp.StatusCode,
		Method:  method,
		URL:     requestURL,
		Allow:   resp.Header.Get("Allow"),
		Snippet: bodySnippet(payload),
	}
}

// FilePart is an uploaded file in a multipart request.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

// PostMultipart uploads a file plus optional form fields.
func (t *Transport) PostMultipart(ctx context.Context, path string, file FilePart, fields map[string]string) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.FieldName, file.FileName))
	partType := file.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}
	header.Set("Content-Type", partType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("scanapi: build multipart body: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("scanapi: build multipart body: %w", err)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("scanapi: build multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("scanapi: build multipart body: %w", err)
	}

	return t.Do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType())
}

// PostJSON sends payload as an application/json body.
func (t *Transport) PostJSON(ctx context.Context, path string, payload []byte) (*Response, error) {
	return t.Do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
}

// Get issues a plain GET.
func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return t.Do(ctx, http.MethodGet, path, nil, "")
}

func conflictMessage(body []byte) string {
	value, err := jsonx.Decode(body)
	if err != nil {
		return ""
	}
	msg, ok := value.StringAt("message")
	if !ok || msg != inProgressMessage {
		return ""
	}
	return msg
}

// retryAfterIn reads Retry-After as integer seconds first, then as an
// HTTP date, and falls back to a fixed wait when neither parses.
func retryAfterIn(header http.Header) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return defaultRetryAfter
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		wait := time.Until(at)
		if wait < time.Second {
			wait = time.Second
		}
		return wait
	}
	return defaultRetryAfter
}

func bodySnippet(body []byte) string {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return snippet
}
