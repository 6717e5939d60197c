package scanapi

import (
	"net/http"
	"testing"

	"sourcescan/internal/jsonx"
)

var discoveryKeys = []string{"scan_id", "scanId", "id", "job_id", "jobId", "upload_id", "uploadId"}

func decode(t *testing.T, doc string) jsonx.Value {
	t.Helper()
	value, err := jsonx.DecodeString(doc)
	if err != nil {
		t.Fatalf("decode %s: %v", doc, err)
	}
	return value
}

func TestFirstIDDirectKey(t *testing.T) {
	value := decode(t, `{"scan_id":"abc-123"}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "abc-123" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestFirstIDNestedEnvelope(t *testing.T) {
	value := decode(t, `{"data":{"scan":{"id":4821}}}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "4821" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestFirstIDArrayOfItems(t *testing.T) {
	value := decode(t, `{"data":[{"name":"x"},{"id":99}]}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "99" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestFirstIDSkipsMappingSubtree(t *testing.T) {
	// Column mappings echo back small integers under keys that look
	// like identifiers; they must never win.
	value := decode(t, `{"mapping":{"id":3,"cost":1},"data":{"scan_id":"real"}}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "real" {
		t.Fatalf("got %q, %v", id, ok)
	}

	onlyMapping := decode(t, `{"mapping":{"id":3,"cost":1}}`)
	if id, ok := FirstID(onlyMapping, discoveryKeys); ok {
		t.Fatalf("expected no id, got %q", id)
	}
}

func TestFirstIDRejectsBooleanLikeNumbers(t *testing.T) {
	for _, doc := range []string{`{"id":0}`, `{"id":1}`, `{"id":""}`, `{"id":"   "}`, `{"id":true}`, `{"id":null}`} {
		value := decode(t, doc)
		if id, ok := FirstID(value, discoveryKeys); ok {
			t.Errorf("%s: expected rejection, got %q", doc, id)
		}
	}
	// Only the bare "id" key treats 0/1 as booleans.
	value := decode(t, `{"scan_id":1}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "1" {
		t.Fatalf("scan_id=1: got %q, %v", id, ok)
	}
}

func TestFirstIDDepthLimit(t *testing.T) {
	deep := `{"a":{"a":{"a":{"a":{"a":{"a":{"a":{"id":7}}}}}}}}`
	if id, ok := FirstID(decode(t, deep), discoveryKeys); ok {
		t.Fatalf("expected depth cutoff, got %q", id)
	}
	shallow := `{"a":{"a":{"id":7}}}`
	if id, ok := FirstID(decode(t, shallow), discoveryKeys); !ok || id != "7" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestFirstIDPrefersNamedKeysOverDescent(t *testing.T) {
	value := decode(t, `{"data":{"id":555},"scan_id":"outer"}`)
	id, ok := FirstID(value, discoveryKeys)
	if !ok || id != "outer" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestIDFromHeaders(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Request-Id", "req-1")
	if id, ok := IDFromHeaders(header); ok {
		t.Fatalf("header without scan hint matched: %q", id)
	}

	header.Set("X-Scan-Id", "  scan-77  ")
	id, ok := IDFromHeaders(header)
	if !ok || id != "scan-77" {
		t.Fatalf("got %q, %v", id, ok)
	}
}

func TestIDFromLocation(t *testing.T) {
	cases := []struct {
		location string
		want     string
		ok       bool
	}{
		{"https://api.example.com/v1/scans/abc123", "abc123", true},
		{"/scans/42", "42", true},
		{"/scans/42/download", "", false},
		{"/jobs/42", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		header := http.Header{}
		if tc.location != "" {
			header.Set("Location", tc.location)
		}
		id, ok := IDFromLocation(header)
		if ok != tc.ok || id != tc.want {
			t.Errorf("location %q: got %q, %v; want %q, %v", tc.location, id, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusFieldPriority(t *testing.T) {
	cases := []struct {
		doc  string
		want string
		ok   bool
	}{
		{`{"status":"running"}`, "running", true},
		{`{"data":{"status":"queued"}}`, "queued", true},
		{`{"data":{"attributes":{"status":"done"}}}`, "done", true},
		{`{"attributes":{"status":"failed"}}`, "failed", true},
		{`{"state":"processing"}`, "processing", true},
		{`{"scan_status":"done"}`, "done", true},
		{`{"scanStatus":"done"}`, "done", true},
		{`{"status":"","state":"running"}`, "", true},
		{`{"status":"top","data":{"status":"inner"}}`, "top", true},
		{`{"progress":55}`, "", false},
		{`{"status":12}`, "", false},
	}
	for _, tc := range cases {
		got, ok := StatusField(decode(t, tc.doc))
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got %q, %v; want %q, %v", tc.doc, got, ok, tc.want, tc.ok)
		}
	}
}

func TestScanItems(t *testing.T) {
	bare := decode(t, `[{"id":1},{"id":2}]`)
	if items := ScanItems(bare); len(items) != 2 {
		t.Fatalf("bare array: got %d items", len(items))
	}
	wrapped := decode(t, `{"data":[{"id":1}]}`)
	if items := ScanItems(wrapped); len(items) != 1 {
		t.Fatalf("data envelope: got %d items", len(items))
	}
	scans := decode(t, `{"scans":[{"id":1},{"id":2},{"id":3}]}`)
	if items := ScanItems(scans); len(items) != 3 {
		t.Fatalf("scans envelope: got %d items", len(items))
	}
	if items := ScanItems(decode(t, `{"total":0}`)); items != nil {
		t.Fatalf("expected nil, got %v", items)
	}
}

func TestScanNameLocations(t *testing.T) {
	cases := []struct {
		doc  string
		want string
		ok   bool
	}{
		{`{"name":"Nightly"}`, "Nightly", true},
		{`{"options":{"name":"Batch 4"}}`, "Batch 4", true},
		{`{"attributes":{"options":{"name":"Weekly"}}}`, "Weekly", true},
		{`{"name":"  "}`, "", false},
		{`{"id":9}`, "", false},
	}
	for _, tc := range cases {
		got, ok := ScanName(decode(t, tc.doc))
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got %q, %v; want %q, %v", tc.doc, got, ok, tc.want, tc.ok)
		}
	}
}

func TestItemStatus(t *testing.T) {
	cases := []struct {
		doc  string
		want string
		ok   bool
	}{
		{`{"status":"done"}`, "done", true},
		{`{"attributes":{"status":"running"}}`, "running", true},
		{`{"data":{"status":"queued"}}`, "queued", true},
		{`{"id":1}`, "", false},
	}
	for _, tc := range cases {
		got, ok := ItemStatus(decode(t, tc.doc))
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got %q, %v; want %q, %v", tc.doc, got, ok, tc.want, tc.ok)
		}
	}
}
