// Package internal holds helpers private to authcore: secure random
// generation here, plus sub-packages.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - logging: slog setup with trace context and credential redaction
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
