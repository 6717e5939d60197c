// Package jsonx decodes JSON into a tagged-union value that preserves
// object member order.
//
// The scanning API returns loosely structured payloads whose shape varies
// between deployments, so the interpreter walks a generic tree instead of
// decoding into fixed structs. encoding/json maps randomize key order,
// which would break the result materializer's first-seen column ordering;
// Value keeps members as an ordered slice instead.
package jsonx
