// Package history records scan runs in a local SQLite database so past
// submissions, their identifiers, and their outcomes can be inspected
// after the fact.
package history
