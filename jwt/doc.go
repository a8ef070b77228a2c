// Package jwt issues and verifies the HS256-signed tokens that carry a
// subject's identity between requests.
//
// # Tokens
//
// Access and refresh tokens share one claim shape: sub, email, exp and iat.
// They differ only in lifetime (30 minutes and 7 days by default). Expiry is
// always computed by the [Manager]; callers never supply it.
//
// # Opaque failure
//
// [Manager.Verify] reports every failure (bad signature, wrong algorithm,
// malformed structure, missing claims, expiry) as the single
// [ErrTokenInvalid]. Callers cannot tell "expired" from "tampered".
//
// # Secret handling
//
// The signing key is a [Secret], normally produced once at process start by
// [GenerateSecret] and held only in memory. A restart invalidates every
// outstanding token. Secret values redact themselves when printed or logged
// and refuse to be marshalled.
package jwt
