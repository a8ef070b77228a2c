package authcore

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/password"
)

// Register creates an account after checking the email format, the password
// policy and uniqueness, in that order. The returned record has no hash.
func (e *Engine) Register(ctx context.Context, email, plain string) (CredentialRecord, error) {
	if !e.ready() {
		return CredentialRecord{}, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if err := e.validate.Var(email, "required,email,max=254"); err != nil {
		return CredentialRecord{}, e.registerRejected(ctx, oops.Code(CodeInvalidEmail).Wrap(ErrInvalidEmail))
	}
	if err := e.checkNewPassword(plain); err != nil {
		return CredentialRecord{}, e.registerRejected(ctx, err)
	}

	if _, err := e.users.GetByEmail(ctx, email); err == nil {
		return CredentialRecord{}, e.registerDuplicate(ctx)
	} else if !errors.Is(err, ErrUserNotFound) {
		return CredentialRecord{}, storeFailed("get_by_email", err)
	}

	hash, err := e.hasher.Hash(plain)
	if err != nil {
		return CredentialRecord{}, e.registerRejected(ctx, hashFailed(err))
	}

	rec, err := e.users.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return CredentialRecord{}, e.registerDuplicate(ctx)
		}
		return CredentialRecord{}, storeFailed("create", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, rec.ID, nil, nil)

	rec.PasswordHash = ""
	return rec, nil
}

func (e *Engine) registerRejected(ctx context.Context, err error) error {
	e.metricInc(MetricRegisterRejected)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
	return err
}

func (e *Engine) registerDuplicate(ctx context.Context) error {
	err := oops.Code(CodeAccountExists).Wrap(ErrAccountExists)
	e.metricInc(MetricRegisterDuplicate)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
	return err
}

// ResetPassword sets a new password for userID and clears the lock flag and
// failure count. It is the out-of-band reset a locked account needs; proving
// the caller may reset is the caller's job.
func (e *Engine) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.checkNewPassword(newPassword); err != nil {
		return err
	}

	rec, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return hashFailed(err)
	}
	if err := e.users.UpdatePasswordHash(ctx, rec.ID, hash); err != nil {
		return storeFailed("update_password_hash", err)
	}
	if rec.Locked || rec.FailedAttempts > 0 {
		if err := e.users.ResetLock(ctx, rec.ID); err != nil {
			return storeFailed("reset_lock", err)
		}
		if rec.Locked {
			e.metricInc(MetricAccountUnlocked)
		}
	}

	e.metricInc(MetricPasswordReset)
	e.emitAudit(ctx, auditEventPasswordReset, true, rec.ID, nil, nil)
	return nil
}

// UnlockAccount clears the lock flag and failure count for userID.
func (e *Engine) UnlockAccount(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	rec, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := e.users.ResetLock(ctx, rec.ID); err != nil {
		return storeFailed("reset_lock", err)
	}

	e.metricInc(MetricAccountUnlocked)
	e.logger.InfoContext(ctx, "account unlocked", "user_id", rec.ID)
	e.emitAudit(ctx, auditEventAccountUnlocked, true, rec.ID, nil, nil)
	return nil
}

func (e *Engine) lookupByID(ctx context.Context, userID string) (CredentialRecord, error) {
	rec, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return CredentialRecord{}, oops.Code(CodeUserNotFound).With("user_id", userID).Wrap(ErrUserNotFound)
		}
		return CredentialRecord{}, storeFailed("get_by_id", err)
	}
	return rec, nil
}

// checkNewPassword applies the complexity policy and the hasher's length
// bound, so an over-long password is a caller error rather than a hash
// failure.
func (e *Engine) checkNewPassword(plain string) error {
	if !e.policy.Validate(plain) {
		return policyViolation()
	}
	limit := e.config.Password.MaxPasswordBytes
	if limit == 0 {
		limit = password.DefaultMaxPasswordBytes
	}
	if len(plain) > limit {
		return oops.Code(CodePolicyViolation).
			With("max_bytes", limit).
			Wrap(ErrPolicyViolation)
	}
	return nil
}

func policyViolation() error {
	return oops.Code(CodePolicyViolation).
		With("rules", password.PolicyMessage).
		Wrap(ErrPolicyViolation)
}

func hashFailed(err error) error {
	return oops.Code(CodeHashFailed).Wrapf(err, "hash password")
}
