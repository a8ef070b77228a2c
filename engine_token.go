package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/jwt"
)

// Authenticate verifies an access token and resolves its subject. Tokens
// for deleted users fail with ErrTokenInvalid.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, rec, err := e.resolve(ctx, token)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		if errors.Is(err, ErrTokenInvalid) {
			e.emitAudit(ctx, auditEventAuthenticateFailed, false, "", err, nil)
		}
		return nil, err
	}

	e.metricInc(MetricAuthenticateSuccess)
	return &Principal{
		UserID:      rec.ID,
		Email:       rec.Email,
		ExpiresAt:   claims.ExpiresAt,
		LastLoginAt: rec.LastLoginAt,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated and stays valid until it expires.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	_, rec, err := e.resolve(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", err, nil)
		return nil, err
	}

	access, err := e.tokens.Issue(rec.ID, rec.Email)
	if err != nil {
		return nil, oops.Code(CodeTokenIssueFailed).Wrapf(err, "issue access token")
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rec.ID, nil, nil)
	return &TokenPair{
		AccessToken: access,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(e.tokens.AccessTTL() / time.Second),
	}, nil
}

// Logout verifies token and records the logout. There is no revocation: the
// token stays valid until it expires, and clients are expected to discard it.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Verify(token)
	if err != nil {
		return tokenInvalid()
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, claims.Subject, nil, nil)
	return nil
}

func (e *Engine) resolve(ctx context.Context, token string) (*jwt.Claims, CredentialRecord, error) {
	claims, err := e.tokens.Verify(token)
	if err != nil {
		return nil, CredentialRecord{}, tokenInvalid()
	}

	rec, err := e.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, CredentialRecord{}, tokenInvalid()
		}
		return nil, CredentialRecord{}, storeFailed("get_by_id", err)
	}
	return claims, rec, nil
}
