// Package password implements password hashing, verification and the
// complexity policy applied before a password may be hashed and stored.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and hash use unpadded standard base64. Every call to [Hasher.Hash]
// draws a fresh salt, so hashing the same password twice yields two different
// strings that both verify.
//
// Legacy bcrypt hashes ($2a$, $2b$, $2y$) are accepted by [Hasher.Verify] and
// reported by [Hasher.NeedsRehash] so callers can upgrade them after a
// successful login.
//
// # Verification never fails loudly
//
// [Hasher.Verify] returns a plain bool. A corrupt, truncated or foreign hash is
// a verification failure, not an error.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords, hashes or hash parameters.
package password
