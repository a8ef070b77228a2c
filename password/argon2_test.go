package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Hasher {
	t.Helper()
	h, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !hasher.Verify("P@ssw0rd-Ascii", hash) {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hasher.Verify("wrong-password", hash) {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashIsSaltedPerCall(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	first, err := hasher.Hash("Valid1Pass!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("Valid1Pass!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected two hashes of the same password to differ")
	}
	if !hasher.Verify("Valid1Pass!", first) || !hasher.Verify("Valid1Pass!", second) {
		t.Fatal("expected both hashes to verify")
	}
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	valid, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"empty":          "",
		"not phc":        "not-a-phc-hash",
		"wrong version":  strings.Replace(valid, "$v=19$", "$v=18$", 1),
		"wrong algo":     strings.Replace(valid, "$argon2id$", "$argon2i$", 1),
		"truncated":      valid[:len(valid)-20],
		"bad salt":       "$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAA",
		"huge memory":    "$argon2id$v=19$m=4294967295,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"missing params": "$argon2id$v=19$m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"foreign bcrypt": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5",
	}

	for name, hash := range cases {
		if hasher.Verify("version-test", hash) {
			t.Fatalf("%s: expected malformed hash verification to fail", name)
		}
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	legacy, err := bcrypt.GenerateFromPassword([]byte("Legacy1Pass!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	if !hasher.Verify("Legacy1Pass!", string(legacy)) {
		t.Fatal("expected bcrypt hash to verify")
	}
	if hasher.Verify("Other1Pass!", string(legacy)) {
		t.Fatal("expected bcrypt mismatch to fail")
	}
	if !hasher.NeedsRehash(string(legacy)) {
		t.Fatal("expected bcrypt hash to need rehash")
	}
}

func TestNeedsRehash(t *testing.T) {
	oldHasher := newTestHasher(t, fastConfig())

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Memory = 16 * 1024
	stronger.Time = 2
	newHasher := newTestHasher(t, stronger)

	if !newHasher.NeedsRehash(hash) {
		t.Fatal("expected NeedsRehash to return true for weaker hash parameters")
	}
	if oldHasher.NeedsRehash(hash) {
		t.Fatal("expected NeedsRehash to return false for current parameters")
	}
	if oldHasher.NeedsRehash("garbage") {
		t.Fatal("expected NeedsRehash to return false for unparseable hash")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestHashTooLongPasswordRejected(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	hasher := newTestHasher(t, cfg)

	if _, err := hasher.Hash(strings.Repeat("a", 65)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	if !hasher.Verify(exact, hash) {
		t.Fatal("Verify failed for max-length password")
	}
	if hasher.Verify(strings.Repeat("c", 65), hash) {
		t.Fatal("expected oversized password to fail verification")
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	if _, err := hasher.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); err == nil {
		t.Fatalf("expected password > %d bytes to be rejected", DefaultMaxPasswordBytes)
	}
	if _, err := hasher.Hash(strings.Repeat("e", DefaultMaxPasswordBytes)); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"low memory":   func(c *Config) { c.Memory = 1024 },
		"zero time":    func(c *Config) { c.Time = 0 },
		"zero threads": func(c *Config) { c.Parallelism = 0 },
		"short salt":   func(c *Config) { c.SaltLength = 8 },
		"short key":    func(c *Config) { c.KeyLength = 8 },
	}

	for name, mutate := range cases {
		cfg := fastConfig()
		mutate(&cfg)
		if _, err := NewHasher(cfg); err == nil {
			t.Fatalf("%s: expected NewHasher to fail", name)
		}
	}
}
