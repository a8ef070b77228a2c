package authcore

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/attempt"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Engine composes the hasher, attempt tracker and token manager into the
// authentication flows. Build one with New().…Build() and share it.
type Engine struct {
	config    Config
	users     UserStore
	hasher    *password.Hasher
	policy    password.Policy
	dummyHash string
	tokens    *jwt.Manager
	attempts  *attempt.Tracker
	audit     *audit.Dispatcher
	metrics   *Metrics
	validate  *validator.Validate
	logger    *slog.Logger
	clock     func() time.Time
}

// Close drains pending audit events. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the Engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// PasswordPolicy returns the complexity rules applied by Register and
// ResetPassword.
func (e *Engine) PasswordPolicy() password.Policy {
	return e.policy
}

// RunAttemptJanitor prunes expired attempt records every interval until ctx
// is done. It is only useful with the in-process attempt store.
func (e *Engine) RunAttemptJanitor(ctx context.Context, interval time.Duration) {
	e.attempts.RunJanitor(ctx, interval)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.hasher != nil && e.tokens != nil && e.attempts != nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e *Engine) attemptIdentifier(ctx context.Context, req LoginRequest) string {
	if req.Identifier != "" {
		return req.Identifier
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		return ip
	}
	return normalizeEmail(req.Email)
}

// RetryAfter reports how long identifier stays refused by the attempt gate.
// It is zero when the next attempt would be admitted, and it does not count
// as an attempt.
func (e *Engine) RetryAfter(ctx context.Context, identifier string) time.Duration {
	if !e.ready() {
		return 0
	}
	rec, ok := e.attempts.Peek(ctx, identifier)
	if !ok || rec.Count < e.attempts.MaxAttempts() {
		return 0
	}
	return max(e.attempts.Window()-e.now().Sub(rec.LastAttempt), 0)
}

// Login authenticates req and issues an access and refresh token.
//
// The attempt gate runs first and refuses with ErrRateLimited regardless of
// the password. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials. A correct password on a locked record yields
// ErrAccountLocked.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricLoginLatency, time.Since(start)) }()
	}

	identifier := e.attemptIdentifier(ctx, req)
	decision := e.attempts.Decide(ctx, identifier)
	if !decision.Allowed {
		e.metricInc(MetricLoginRateLimited)
		err := oops.Code(CodeRateLimited).
			With("retry_after", decision.RetryAfter).
			Wrap(ErrRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", err, func() map[string]string {
			return map[string]string{
				"retry_after_seconds": strconv.FormatInt(int64(decision.RetryAfter/time.Second), 10),
			}
		})
		return nil, err
	}

	rec, err := e.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, storeFailed("get_by_email", err)
		}
		e.hasher.Verify(req.Password, e.dummyHash)
		e.metricInc(MetricLoginFailure)
		err = invalidCredentials()
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return nil, err
	}

	if !e.hasher.Verify(req.Password, rec.PasswordHash) {
		return nil, e.recordLoginFailure(ctx, rec)
	}

	if rec.Locked {
		e.metricInc(MetricLoginAccountLocked)
		err := oops.Code(CodeAccountLocked).With("user_id", rec.ID).Wrap(ErrAccountLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, rec.ID, err, nil)
		return nil, err
	}

	if err := e.users.RecordLoginSuccess(ctx, rec.ID, e.now()); err != nil {
		return nil, storeFailed("record_login_success", err)
	}
	e.maybeRehash(ctx, rec, req.Password)
	e.attempts.Reset(ctx, identifier)

	pair, err := e.issuePair(rec)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, rec.ID, nil, nil)
	return pair, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, rec CredentialRecord) error {
	e.metricInc(MetricLoginFailure)

	updated, err := e.users.RecordLoginFailure(ctx, rec.ID, e.config.Account.LockThreshold)
	if err != nil {
		return storeFailed("record_login_failure", err)
	}

	loginErr := invalidCredentials()
	e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, loginErr, func() map[string]string {
		return map[string]string{"failed_attempts": strconv.Itoa(updated.FailedAttempts)}
	})

	if updated.Locked && !rec.Locked {
		e.metricInc(MetricAccountLocked)
		e.logger.InfoContext(ctx, "account locked after repeated failures",
			"user_id", rec.ID,
			"failed_attempts", updated.FailedAttempts,
		)
		e.emitAudit(ctx, auditEventAccountLocked, true, rec.ID, nil, nil)
	}

	return loginErr
}

func (e *Engine) maybeRehash(ctx context.Context, rec CredentialRecord, plain string) {
	if !e.config.Password.UpgradeOnLogin || !e.hasher.NeedsRehash(rec.PasswordHash) {
		return
	}

	newHash, err := e.hasher.Hash(plain)
	if err != nil {
		e.logger.WarnContext(ctx, "password rehash failed", "user_id", rec.ID, "error", err)
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, rec.ID, newHash); err != nil {
		e.logger.WarnContext(ctx, "password rehash store failed", "user_id", rec.ID, "error", err)
		return
	}

	e.metricInc(MetricPasswordRehash)
	e.emitAudit(ctx, auditEventPasswordRehashed, true, rec.ID, nil, nil)
}

func (e *Engine) issuePair(rec CredentialRecord) (*TokenPair, error) {
	access, err := e.tokens.Issue(rec.ID, rec.Email)
	if err != nil {
		return nil, oops.Code(CodeTokenIssueFailed).Wrapf(err, "issue access token")
	}
	refresh, err := e.tokens.IssueRefresh(rec.ID, rec.Email)
	if err != nil {
		return nil, oops.Code(CodeTokenIssueFailed).Wrapf(err, "issue refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(e.tokens.AccessTTL() / time.Second),
	}, nil
}
