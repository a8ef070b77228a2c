package authcore

import (
	"context"
	"time"
)

// CredentialRecord is the slice of a user row the core reads and writes.
// The UserStore owns it; the core never changes ID or Email.
type CredentialRecord struct {
	ID             string
	Email          string
	PasswordHash   string
	Locked         bool
	FailedAttempts int
	CreatedAt      time.Time
	LastLoginAt    time.Time
}

// UserStore persists credential records. Implementations must be safe for
// concurrent use.
//
// Lookups that miss return an error wrapping ErrUserNotFound. Create returns
// an error wrapping ErrAccountExists when the email is taken.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (CredentialRecord, error)
	GetByID(ctx context.Context, userID string) (CredentialRecord, error)
	Create(ctx context.Context, email, passwordHash string) (CredentialRecord, error)

	// RecordLoginFailure increments the failure count and sets the lock flag
	// once the count reaches lockThreshold, atomically. It returns the
	// updated record.
	RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (CredentialRecord, error)
	// RecordLoginSuccess zeroes the failure count and stamps LastLoginAt.
	RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	// ResetLock clears the lock flag and zeroes the failure count.
	ResetLock(ctx context.Context, userID string) error
}

// LoginRequest is the input to Engine.Login.
type LoginRequest struct {
	Email    string
	Password string
	// Identifier keys the attempt gate. Empty falls back to the client IP
	// attached with WithClientIP, then to the normalized email.
	Identifier string
}

// TokenPair is returned by Login and Refresh. Refresh leaves RefreshToken
// empty.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Principal is the verified identity behind an access token.
type Principal struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	// LastLoginAt is the most recent successful login; zero if none.
	LastLoginAt time.Time
}

// TokenTypeBearer is the TokenType of every issued pair.
const TokenTypeBearer = "bearer"
