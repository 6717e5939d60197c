// Package scanapi wraps HTTP access to the remote scanning service.
//
// It owns the request/response boundary: issuing calls with bounded
// timeouts, translating transport and HTTP-status failures into the typed
// error taxonomy the lifecycle engine retries or surfaces, and extracting
// identifiers and status strings from the service's loosely structured
// response shapes. Retry decisions never happen here; the engine owns all
// timing.
package scanapi
