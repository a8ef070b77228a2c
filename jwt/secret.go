package jwt

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/authcore/internal"
)

// SecretSize is the number of random bytes drawn by GenerateSecret.
const SecretSize = 32

const redacted = "[REDACTED]"

var (
	// ErrSecretTooShort is returned by SecretFromBytes for keys under SecretSize bytes.
	ErrSecretTooShort = errors.New("signing secret must be at least 32 bytes")
	errSecretMarshal  = errors.New("signing secret is not serializable")
)

// Secret is an HMAC signing key. The zero value holds no key.
type Secret struct {
	key []byte
}

// GenerateSecret draws a fresh key from crypto/rand.
func GenerateSecret() (Secret, error) {
	key, err := internal.RandomBytes(SecretSize)
	if err != nil {
		return Secret{}, err
	}
	return Secret{key: key}, nil
}

// SecretFromBytes copies b into a Secret. Intended for tests and for
// deployments that share a key between processes.
func SecretFromBytes(b []byte) (Secret, error) {
	if len(b) < SecretSize {
		return Secret{}, ErrSecretTooShort
	}
	key := make([]byte, len(b))
	copy(key, b)
	return Secret{key: key}, nil
}

// IsZero reports whether s holds no key.
func (s Secret) IsZero() bool {
	return len(s.key) == 0
}

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

func (s Secret) MarshalJSON() ([]byte, error) { return nil, errSecretMarshal }
func (s Secret) MarshalText() ([]byte, error) { return nil, errSecretMarshal }
