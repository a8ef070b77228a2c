package authcore

import (
	"errors"

	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Error codes attached with oops at the point of failure. Compare with
// ErrorCode; compare kinds with errors.Is against the sentinels below.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeRateLimited        = "AUTH_RATE_LIMITED"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodePolicyViolation    = "AUTH_POLICY_VIOLATION"
	CodeAccountExists      = "AUTH_ACCOUNT_EXISTS"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
	CodeStoreFailed        = "AUTH_STORE_FAILED"
	CodeHashFailed         = "AUTH_HASH_FAILED"
	CodeTokenIssueFailed   = "AUTH_TOKEN_ISSUE_FAILED"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited means the attempt tracker refused the login attempt.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrAccountLocked means the credential record's lock flag is set.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenInvalid is the single token verification failure.
	ErrTokenInvalid = jwt.ErrTokenInvalid
	// ErrPolicyViolation carries password.PolicyMessage.
	ErrPolicyViolation = password.ErrPolicyViolation
	// ErrAccountExists is returned by Register for a taken email.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidEmail is returned by Register for a malformed email.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrUserNotFound is returned by UserStore lookups that miss.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorCode returns the oops code attached to err, or "" when there is none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ := oopsErr.Code().(string)
		return code
	}
	return ""
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

func tokenInvalid() error {
	return oops.Code(CodeTokenInvalid).Wrap(ErrTokenInvalid)
}

func storeFailed(op string, err error) error {
	return oops.Code(CodeStoreFailed).With("op", op).Wrap(err)
}
