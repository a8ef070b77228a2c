// Package audit delivers authentication events to sinks off the request path.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full
//     semantics. It stamps each event with a ULID and a UTC timestamp.
//   - [Event]: one login, registration, token or account-state outcome.
//
// # What this package must NOT do
//
//   - Decide which events to emit. The Engine does that.
//   - Carry credentials. Events hold identifiers and outcome codes only.
//   - Import authcore or any sibling internal package.
package audit
