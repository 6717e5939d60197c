package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sourcescan/internal/jsonx"
)

// ErrUnsupportedPayload marks JSON result payloads that cannot be
// flattened into rows.
var ErrUnsupportedPayload = errors.New("unsupported JSON results structure")

// Write persists a result payload to outPath. CSV payloads are written
// verbatim; JSON payloads are converted to CSV rows.
func Write(contentType string, body []byte, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("results: create output directory: %w", err)
		}
	}

	ct := strings.ToLower(contentType)
	isCSV := strings.Contains(ct, "text/csv") ||
		(strings.EqualFold(filepath.Ext(outPath), ".csv") && !strings.Contains(ct, "application/json"))
	if isCSV {
		if err := os.WriteFile(outPath, body, 0o644); err != nil {
			return fmt.Errorf("results: write output: %w", err)
		}
		return nil
	}

	data, err := jsonx.Decode(body)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	return writeJSONAsCSV(data, outPath)
}

func writeJSONAsCSV(data jsonx.Value, outPath string) error {
	rows, err := extractRows(data)
	if err != nil {
		return err
	}

	// Header union keeps first-seen order across all rows.
	var fieldnames []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		for _, member := range row.Obj {
			if _, ok := seen[member.Key]; ok {
				continue
			}
			seen[member.Key] = struct{}{}
			fieldnames = append(fieldnames, member.Key)
		}
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("results: create output: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(fieldnames); err != nil {
		return fmt.Errorf("results: write header: %w", err)
	}
	record := make([]string, len(fieldnames))
	for _, row := range rows {
		for i, field := range fieldnames {
			value, ok := row.Get(field)
			if !ok {
				record[i] = ""
				continue
			}
			record[i] = value.Scalar()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("results: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("results: flush output: %w", err)
	}
	return file.Close()
}

// extractRows normalizes a JSON payload into object rows: a bare list of
// objects, a list under the usual envelope keys, or a single object as a
// one-row table.
func extractRows(data jsonx.Value) ([]jsonx.Value, error) {
	if data.IsArray() {
		if !allObjects(data.Arr) {
			return nil, fmt.Errorf("%w: list is not a list of objects", ErrUnsupportedPayload)
		}
		return data.Arr, nil
	}
	if data.IsObject() {
		for _, key := range []string{"data", "results", "items"} {
			member, ok := data.Get(key)
			if ok && member.IsArray() && allObjects(member.Arr) {
				return member.Arr, nil
			}
		}
		return []jsonx.Value{data}, nil
	}
	return nil, ErrUnsupportedPayload
}

func allObjects(values []jsonx.Value) bool {
	for _, value := range values {
		if !value.IsObject() {
			return false
		}
	}
	return true
}
