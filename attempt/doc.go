// Package attempt gates login attempts per identifier with a time-windowed
// lockout.
//
// # State machine
//
// Each identifier is in one of three states:
//
//   - Fresh: no record, or the record's last attempt is older than the window.
//   - Counting: 0 < count < max.
//   - Locked: count >= max and the last attempt is within the window.
//
// [Tracker.Check] is called once per inbound attempt, before credentials are
// verified. A Locked identifier is refused without touching its record, so the
// lockout counts down from the last admitted attempt. Any other state admits
// the attempt and bumps the count (back to 1 if the record had expired).
// [Tracker.Reset] deletes the record after a successful login.
//
// # Stores
//
// [MemoryStore] keeps records in a mutex-guarded map and is lost on restart.
// [RedisStore] runs the same transition inside a Lua script so several
// processes share one view. Both apply each check atomically per identifier.
//
// # Failure mode
//
// The Tracker never returns an error. Store failures are logged and the
// attempt is admitted, unless the Tracker is configured to fail closed.
//
// # What this package must NOT do
//
//   - Count credential failures. It limits attempts, not wrong passwords.
//   - Inspect or normalize identifiers. Keys are opaque strings.
package attempt
