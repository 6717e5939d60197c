// Package scan orchestrates the lifecycle of a remote scan: submitting
// the input CSV, discovering the scan identifier under ambiguous
// creation responses, polling status to completion, and fetching the
// result payload.
package scan
