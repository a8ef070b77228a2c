package attempt

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts is the number of attempts admitted per window.
	DefaultMaxAttempts = 5
	// DefaultLockoutWindow is how long an identifier's record stays live.
	DefaultLockoutWindow = 15 * time.Minute
)

// Record is the per-identifier attempt state.
type Record struct {
	Count       int
	LastAttempt time.Time
}

// Decision is the outcome of a single check.
type Decision struct {
	Allowed bool
	// Count is the attempt count after the check.
	Count int
	// RetryAfter is set when the attempt was refused.
	RetryAfter time.Duration
}

// Store persists attempt records. Admit must apply the check for key
// atomically with respect to other calls for the same key.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time, max int, window time.Duration) (Decision, error)
	Get(ctx context.Context, key string) (Record, bool, error)
	Delete(ctx context.Context, key string) error
}

type pruner interface {
	Prune(now time.Time, window time.Duration) int
}

// Config holds Tracker settings. Zero values fall back to the defaults.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	// FailClosed refuses attempts while the store is failing.
	FailClosed bool
	Now        func() time.Time
	Logger     *slog.Logger
}

// Tracker is the attempt gate. Construct one per process and share it.
type Tracker struct {
	store  Store
	config Config
	logger *slog.Logger
}

// New returns a Tracker over store. A nil store gets a fresh MemoryStore.
func New(store Store, cfg Config) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultLockoutWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, config: cfg, logger: logger.With("component", "attempt")}
}

// MaxAttempts returns the configured threshold.
func (t *Tracker) MaxAttempts() int { return t.config.MaxAttempts }

// Window returns the configured lockout window.
func (t *Tracker) Window() time.Duration { return t.config.Window }

// Check reports whether an attempt for identifier may proceed.
func (t *Tracker) Check(ctx context.Context, identifier string) bool {
	return t.Decide(ctx, identifier).Allowed
}

// Decide is Check with the full decision.
func (t *Tracker) Decide(ctx context.Context, identifier string) Decision {
	d, err := t.store.Admit(ctx, identifier, t.config.Now(), t.config.MaxAttempts, t.config.Window)
	if err != nil {
		t.logger.WarnContext(ctx, "attempt store check failed",
			"error", err,
			"fail_closed", t.config.FailClosed,
		)
		if t.config.FailClosed {
			return Decision{Allowed: false, RetryAfter: t.config.Window}
		}
		return Decision{Allowed: true}
	}
	return d
}

// Reset forgets identifier. Missing identifiers are a no-op.
func (t *Tracker) Reset(ctx context.Context, identifier string) {
	if err := t.store.Delete(ctx, identifier); err != nil {
		t.logger.WarnContext(ctx, "attempt store reset failed", "error", err)
	}
}

// Peek returns the live record for identifier without mutating it. Expired
// records are reported as absent.
func (t *Tracker) Peek(ctx context.Context, identifier string) (Record, bool) {
	rec, ok, err := t.store.Get(ctx, identifier)
	if err != nil {
		t.logger.WarnContext(ctx, "attempt store read failed", "error", err)
		return Record{}, false
	}
	if !ok || expired(rec, t.config.Now(), t.config.Window) {
		return Record{}, false
	}
	return rec, true
}

// Prune drops expired records from stores that keep them in process. It
// returns the number removed.
func (t *Tracker) Prune() int {
	p, ok := t.store.(pruner)
	if !ok {
		return 0
	}
	return p.Prune(t.config.Now(), t.config.Window)
}

// RunJanitor calls Prune every interval until ctx is done.
func (t *Tracker) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = t.config.Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Prune(); n > 0 {
				t.logger.DebugContext(ctx, "pruned attempt records", "count", n)
			}
		}
	}
}

func expired(rec Record, now time.Time, window time.Duration) bool {
	return now.Sub(rec.LastAttempt) > window
}

// advance applies one check to the prior record. The returned record is only
// meaningful when the decision admits the attempt.
func advance(rec Record, exists bool, now time.Time, max int, window time.Duration) (Record, Decision) {
	if !exists || expired(rec, now, window) {
		return Record{Count: 1, LastAttempt: now}, Decision{Allowed: true, Count: 1}
	}
	if rec.Count >= max {
		return rec, Decision{
			Allowed:    false,
			Count:      rec.Count,
			RetryAfter: window - now.Sub(rec.LastAttempt),
		}
	}
	next := Record{Count: rec.Count + 1, LastAttempt: now}
	return next, Decision{Allowed: true, Count: next.Count}
}
