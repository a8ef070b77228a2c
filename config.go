package authcore

import (
	"errors"
	"time"

	"github.com/MrEthical07/authcore/attempt"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// DefaultAccountLockThreshold is the failure count at which a credential
// record's lock flag is set.
const DefaultAccountLockThreshold = 5

// Config holds Engine settings. Obtain one from DefaultConfig and adjust.
//
// The koanf tags let binaries load it from YAML.
type Config struct {
	Token    TokenConfig    `koanf:"token"`
	Attempts AttemptConfig  `koanf:"attempts"`
	Account  AccountConfig  `koanf:"account"`
	Password PasswordConfig `koanf:"password"`
	Audit    AuditConfig    `koanf:"audit"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls token lifetimes. The signing secret is not part of
// Config; it is generated at Build or supplied through Builder.WithSecret.
type TokenConfig struct {
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
	Issuer     string        `koanf:"issuer"`
	Leeway     time.Duration `koanf:"leeway"`
}

/*
====================================
ATTEMPT CONFIG
====================================
*/

// AttemptConfig controls the login attempt gate.
type AttemptConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Window      time.Duration `koanf:"window"`
	FailClosed  bool          `koanf:"fail_closed"`
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls credential-record locking.
type AccountConfig struct {
	LockThreshold int `koanf:"lock_threshold"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the complexity policy.
type PasswordConfig struct {
	Memory           uint32 `koanf:"memory"` // in KB
	Time             uint32 `koanf:"time"`
	Parallelism      uint8  `koanf:"parallelism"`
	SaltLength       uint32 `koanf:"salt_length"`
	KeyLength        uint32 `koanf:"key_length"`
	MaxPasswordBytes int    `koanf:"max_password_bytes"`
	UpgradeOnLogin   bool   `koanf:"upgrade_on_login"`
	MinLength        int    `koanf:"min_length"`
	Symbols          string `koanf:"symbols"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock settings: 30 minute access tokens, 7 day
// refresh tokens, 5 attempts per 15 minutes, lock at 5 failures.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	policy := password.DefaultPolicy()
	return Config{
		Token: TokenConfig{
			AccessTTL:  jwt.DefaultAccessTTL,
			RefreshTTL: jwt.DefaultRefreshTTL,
		},
		Attempts: AttemptConfig{
			MaxAttempts: attempt.DefaultMaxAttempts,
			Window:      attempt.DefaultLockoutWindow,
		},
		Account: AccountConfig{
			LockThreshold: DefaultAccountLockThreshold,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
			UpgradeOnLogin:   true,
			MinLength:        policy.MinLength,
			Symbols:          policy.Symbols,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

func (c PasswordConfig) policy() password.Policy {
	return password.Policy{MinLength: c.MinLength, Symbols: c.Symbols}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Attempts
	if c.Attempts.MaxAttempts <= 0 {
		return errors.New("Attempts MaxAttempts must be > 0")
	}
	if c.Attempts.Window <= 0 {
		return errors.New("Attempts Window must be > 0")
	}

	// Account
	if c.Account.LockThreshold <= 0 {
		return errors.New("Account LockThreshold must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.Symbols == "" {
		return errors.New("Password Symbols must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
