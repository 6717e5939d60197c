package scanapi

import (
	"net/http"
	"net/url"
	"strings"

	"sourcescan/internal/jsonx"
)

// maxWalkDepth bounds the recursive identifier search so pathological
// nesting cannot stall discovery.
const maxWalkDepth = 6

// wrapperContainers are envelope keys descended into before the rest of
// an object, in priority order.
var wrapperContainers = [...]string{"data", "scan", "job", "upload", "file", "result"}

// noiseKeys hold caller-supplied configuration echoed back by the
// service. Integer values under them (column indexes) would otherwise be
// mistaken for identifiers.
var noiseKeys = map[string]struct{}{
	"mapping": {},
}

// FirstID walks value depth-first looking for the first member whose key
// is in keys and whose value is a usable identifier. Returns the
// identifier rendered as a string.
func FirstID(value jsonx.Value, keys []string) (string, bool) {
	return walkForID(value, keys, 0, "")
}

func walkForID(value jsonx.Value, keys []string, depth int, parentKey string) (string, bool) {
	if depth > maxWalkDepth {
		return "", false
	}
	switch {
	case value.IsObject():
		for _, key := range keys {
			member, ok := value.Get(key)
			if !ok {
				continue
			}
			if id, ok := idValue(member, key); ok {
				return id, true
			}
		}
		if _, noisy := noiseKeys[parentKey]; noisy {
			return "", false
		}
		for _, container := range wrapperContainers {
			member, ok := value.Get(container)
			if !ok {
				continue
			}
			if id, ok := walkForID(member, keys, depth+1, container); ok {
				return id, true
			}
		}
		for _, member := range value.Obj {
			if _, noisy := noiseKeys[member.Key]; noisy {
				continue
			}
			if id, ok := walkForID(member.Value, keys, depth+1, member.Key); ok {
				return id, true
			}
		}
	case value.IsArray():
		for _, item := range value.Arr {
			if id, ok := walkForID(item, keys, depth+1, parentKey); ok {
				return id, true
			}
		}
	}
	return "", false
}

// idValue decides whether a candidate member is a real identifier.
// Strings need non-blank content; numbers under a bare "id" key reject 0
// and 1, which the service uses as booleans in some payloads.
func idValue(value jsonx.Value, key string) (string, bool) {
	switch value.Kind {
	case jsonx.String:
		if strings.TrimSpace(value.Str) == "" {
			return "", false
		}
		return value.Str, true
	case jsonx.Number:
		f, err := value.Num.Float64()
		if err != nil {
			return "", false
		}
		if key == "id" && (f == 0 || f == 1) {
			return "", false
		}
		return jsonx.NumberString(value.Num), true
	default:
		return "", false
	}
}

// IDFromHeaders scans response headers for a scan identifier. A header
// qualifies when its name mentions an id together with a scan, job, or
// upload hint.
func IDFromHeaders(header http.Header) (string, bool) {
	for name, values := range header {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "id") {
			continue
		}
		if !strings.Contains(lower, "scan") && !strings.Contains(lower, "job") && !strings.Contains(lower, "upload") {
			continue
		}
		for _, value := range values {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// IDFromLocation pulls the trailing path segment from a Location header
// when the preceding segment is the scans collection.
func IDFromLocation(header http.Header) (string, bool) {
	location := strings.TrimSpace(header.Get("Location"))
	if location == "" {
		return "", false
	}
	path := location
	if parsed, err := url.Parse(location); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) >= 2 && segments[len(segments)-2] == "scans" {
		return segments[len(segments)-1], true
	}
	return "", false
}

// StatusField extracts the raw status string from a status payload,
// trying the known locations in priority order. The returned string may
// be blank; callers treat blank as still pending.
func StatusField(value jsonx.Value) (string, bool) {
	if !value.IsObject() {
		return "", false
	}
	if member, ok := value.Get("status"); ok && member.Kind == jsonx.String {
		return member.Str, true
	}
	if data, ok := value.Get("data"); ok && data.IsObject() {
		if member, ok := data.Get("status"); ok && member.Kind == jsonx.String {
			return member.Str, true
		}
		if attrs, ok := data.Get("attributes"); ok && attrs.IsObject() {
			if member, ok := attrs.Get("status"); ok && member.Kind == jsonx.String {
				return member.Str, true
			}
		}
	}
	if attrs, ok := value.Get("attributes"); ok && attrs.IsObject() {
		if member, ok := attrs.Get("status"); ok && member.Kind == jsonx.String {
			return member.Str, true
		}
	}
	for _, key := range []string{"state", "scan_status", "scanStatus"} {
		if member, ok := value.Get(key); ok && member.Kind == jsonx.String && strings.TrimSpace(member.Str) != "" {
			return member.Str, true
		}
	}
	return "", false
}

// ScanItems unwraps a scan-listing payload into its item values. Bare
// arrays are returned as-is; objects are checked for the usual envelope
// keys.
func ScanItems(value jsonx.Value) []jsonx.Value {
	if value.IsArray() {
		return value.Arr
	}
	if !value.IsObject() {
		return nil
	}
	for _, key := range []string{"data", "scans"} {
		if member, ok := value.Get(key); ok && member.IsArray() {
			return member.Arr
		}
	}
	return nil
}

// ScanName pulls a display name from a scan listing item.
func ScanName(item jsonx.Value) (string, bool) {
	if !item.IsObject() {
		return "", false
	}
	if name, ok := item.StringAt("name"); ok {
		return name, true
	}
	if options, ok := item.Get("options"); ok && options.IsObject() {
		if name, ok := options.StringAt("name"); ok {
			return name, true
		}
	}
	if attrs, ok := item.Get("attributes"); ok && attrs.IsObject() {
		if options, ok := attrs.Get("options"); ok && options.IsObject() {
			if name, ok := options.StringAt("name"); ok {
				return name, true
			}
		}
	}
	return "", false
}

// ItemStatus pulls a status string from a scan listing item. The lookup
// order differs from StatusField because listing items nest differently.
func ItemStatus(item jsonx.Value) (string, bool) {
	if !item.IsObject() {
		return "", false
	}
	if member, ok := item.Get("status"); ok && member.Kind == jsonx.String {
		return member.Str, true
	}
	if attrs, ok := item.Get("attributes"); ok && attrs.IsObject() {
		if member, ok := attrs.Get("status"); ok && member.Kind == jsonx.String {
			return member.Str, true
		}
	}
	if data, ok := item.Get("data"); ok && data.IsObject() {
		if member, ok := data.Get("status"); ok && member.Kind == jsonx.String {
			return member.Str, true
		}
	}
	return "", false
}
