// Package authcore is an authentication primitive layer: password hashing
// and complexity policy, brute-force attempt tracking with a time-windowed
// lockout, and HS256 access and refresh tokens.
//
// The building blocks live in sub-packages ([password], [attempt], [jwt]) and
// can be used alone. [Engine] composes them into the login, registration,
// refresh and account flows, against a caller-supplied [UserStore].
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Login
//
// Login runs the attempt gate first, then the user lookup, then password
// verification. Unknown emails and wrong passwords produce the same
// [ErrInvalidCredentials], and unknown emails still pay for one hash
// verification. A wrong password bumps the record's failure count and sets
// its lock flag at the configured threshold. The lock flag is only checked
// once the password verified, and is cleared only by ResetPassword or
// UnlockAccount.
//
// # Errors
//
// Every failure wraps one of the exported sentinels with a samber/oops code.
// Use errors.Is for the kind and [ErrorCode] for the code.
//
// # What this package must NOT do
//
//   - Log or audit passwords, hashes, tokens or the signing secret.
//   - Persist attempt state or the signing secret.
//   - Revoke tokens. Logout is advisory.
package authcore
