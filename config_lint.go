package authcore

import (
	"fmt"
	"time"
)

// LintWarning is a setting that is valid but weaker than the defaults.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list of warnings produced by Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint flags settings that pass Validate but loosen the stock security
// posture. It never fails.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if c.Token.AccessTTL > time.Hour {
		add("access_ttl_long", "access tokens live %s; they cannot be revoked", c.Token.AccessTTL)
	}
	if c.Token.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", "refresh tokens live %s", c.Token.RefreshTTL)
	}
	if c.Token.Leeway > time.Minute {
		add("leeway_large", "token leeway %s exceeds 1m", c.Token.Leeway)
	}
	if c.Attempts.MaxAttempts > 20 {
		add("attempts_high", "%d login attempts are admitted per window", c.Attempts.MaxAttempts)
	}
	if c.Attempts.Window < time.Minute {
		add("attempt_window_short", "attempt window %s is under 1m", c.Attempts.Window)
	}
	if c.Account.LockThreshold > 20 {
		add("lock_threshold_high", "accounts lock only after %d failures", c.Account.LockThreshold)
	}
	if c.Password.MinLength < 8 {
		add("password_min_length_short", "password minimum length %d is under 8", c.Password.MinLength)
	}
	if !c.Password.UpgradeOnLogin {
		add("password_upgrade_disabled", "legacy or weaker hashes are not upgraded on login")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "audit events are not emitted")
	}

	return ws
}
