// Package memory is an in-process authcore.UserStore for tests and single
// instance deployments. Records are lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authcore"
)

// Store keeps credential records in maps guarded by a single mutex.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*authcore.CredentialRecord
	byEmail map[string]string
	now     func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*authcore.CredentialRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock sets the source of CreatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetByEmail looks up a record by normalized email.
func (s *Store) GetByEmail(_ context.Context, email string) (authcore.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return authcore.CredentialRecord{}, authcore.ErrUserNotFound
	}
	return *s.byID[id], nil
}

// GetByID looks up a record by id.
func (s *Store) GetByID(_ context.Context, userID string) (authcore.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		return authcore.CredentialRecord{}, authcore.ErrUserNotFound
	}
	return *rec, nil
}

// Create stores a new record under a fresh UUID.
func (s *Store) Create(_ context.Context, email, passwordHash string) (authcore.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return authcore.CredentialRecord{}, fmt.Errorf("create %q: %w", email, authcore.ErrAccountExists)
	}

	rec := &authcore.CredentialRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.byID[rec.ID] = rec
	s.byEmail[email] = rec.ID
	return *rec, nil
}

// RecordLoginFailure bumps the failure count and locks at lockThreshold.
func (s *Store) RecordLoginFailure(_ context.Context, userID string, lockThreshold int) (authcore.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return authcore.CredentialRecord{}, authcore.ErrUserNotFound
	}
	rec.FailedAttempts++
	if lockThreshold > 0 && rec.FailedAttempts >= lockThreshold {
		rec.Locked = true
	}
	return *rec, nil
}

// RecordLoginSuccess zeroes the failure count and stamps LastLoginAt.
func (s *Store) RecordLoginSuccess(_ context.Context, userID string, at time.Time) error {
	return s.update(userID, func(rec *authcore.CredentialRecord) {
		rec.FailedAttempts = 0
		rec.LastLoginAt = at.UTC()
	})
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	return s.update(userID, func(rec *authcore.CredentialRecord) {
		rec.PasswordHash = passwordHash
	})
}

// ResetLock clears the lock flag and failure count.
func (s *Store) ResetLock(_ context.Context, userID string) error {
	return s.update(userID, func(rec *authcore.CredentialRecord) {
		rec.Locked = false
		rec.FailedAttempts = 0
	})
}

// Delete removes a record. Tokens already issued to it stop authenticating.
func (s *Store) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}
	delete(s.byEmail, rec.Email)
	delete(s.byID, userID)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) update(userID string, fn func(*authcore.CredentialRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}
	fn(rec)
	return nil
}

var _ authcore.UserStore = (*Store)(nil)
