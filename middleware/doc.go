// Package middleware adapts authcore.Engine to net/http.
//
// # Handlers
//
//   - [RequireToken] verifies the bearer access token and stores the
//     [authcore.Principal] in the request context.
//   - [SecureHeaders] sets the response security headers on every reply.
//   - [RequestMetrics] records request latency per route in Prometheus.
//   - [WriteError] maps authcore errors onto HTTP status codes.
//
// # What this package must NOT do
//
//   - Parse or sign tokens itself (delegates to Engine.Authenticate).
//   - Distinguish token failures in responses; every one is a 401.
//   - Touch the user store or attempt tracker.
package middleware
