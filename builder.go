package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/attempt"
	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config

	users        UserStore
	attemptStore attempt.Store
	secret       jwt.Secret
	auditSink    AuditSink
	logger       *slog.Logger
	clock        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithUserStore sets the credential store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithAttemptStore sets the attempt tracker backend. The default is an
// in-process attempt.MemoryStore.
func (b *Builder) WithAttemptStore(store attempt.Store) *Builder {
	b.attemptStore = store
	return b
}

// WithSecret sets the token signing secret. Without it Build generates a
// fresh one, so tokens do not survive a restart.
func (b *Builder) WithSecret(secret jwt.Secret) *Builder {
	b.secret = secret
	return b
}

// WithAuditSink sets the audit destination. It only takes effect with
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for the Engine and its tracker. Nil means
// slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for tokens, attempt windows and audit stamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram. It has no
// effect unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine. It hashes one
// throwaway password, so it takes as long as a single Hash call.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- CREDENTIALS --------
	hasher, err := password.NewHasher(cfg.Password.hasherConfig())
	if err != nil {
		return nil, err
	}

	seed, err := internal.RandomHex(16)
	if err != nil {
		return nil, oops.Code(CodeHashFailed).Wrapf(err, "dummy hash seed")
	}
	dummyHash, err := hasher.Hash(seed)
	if err != nil {
		return nil, oops.Code(CodeHashFailed).Wrapf(err, "dummy hash")
	}

	// -------- TOKENS --------
	secret := b.secret
	if secret.IsZero() {
		secret, err = jwt.GenerateSecret()
		if err != nil {
			return nil, err
		}
	}
	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     secret,
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
		Now:        clock,
	})
	if err != nil {
		return nil, err
	}

	// -------- ATTEMPTS --------
	tracker := attempt.New(b.attemptStore, attempt.Config{
		MaxAttempts: cfg.Attempts.MaxAttempts,
		Window:      cfg.Attempts.Window,
		FailClosed:  cfg.Attempts.FailClosed,
		Now:         clock,
		Logger:      logger,
	})

	engine := &Engine{
		config:    cfg,
		users:     b.users,
		hasher:    hasher,
		policy:    cfg.Password.policy(),
		dummyHash: dummyHash,
		tokens:    tokens,
		attempts:  tracker,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger,
		}, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		validate: validator.New(),
		logger:   logger.With("component", "authcore"),
		clock:    clock,
	}

	b.built = true

	return engine, nil
}
