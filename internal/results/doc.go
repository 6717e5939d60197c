// Package results persists fetched scan results as CSV files.
//
// Result payloads arrive either as ready-made CSV bytes or as JSON in a
// handful of shapes. JSON payloads are flattened into rows with a header
// union in first-seen order, so column ordering is stable across runs.
package results
