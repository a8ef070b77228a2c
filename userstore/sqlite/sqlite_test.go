package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := s.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	got, err := s.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))
	assert.True(t, got.LastLoginAt.IsZero())

	got, err = s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = s.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, authcore.ErrUserNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)
	_, err = s.Create(ctx, "a@example.com", "hash")
	assert.ErrorIs(t, err, authcore.ErrAccountExists)
}

func TestRecordLoginFailureLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		got, err := s.RecordLoginFailure(ctx, rec.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, i, got.FailedAttempts)
		assert.Equal(t, i == 5, got.Locked)
	}

	require.NoError(t, s.ResetLock(ctx, rec.ID))
	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, got.Locked)
	assert.Zero(t, got.FailedAttempts)

	_, err = s.RecordLoginFailure(ctx, "missing", 5)
	assert.ErrorIs(t, err, authcore.ErrUserNotFound)
}

func TestUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)

	_, err = s.RecordLoginFailure(ctx, rec.ID, 5)
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.RecordLoginSuccess(ctx, rec.ID, at))
	require.NoError(t, s.UpdatePasswordHash(ctx, rec.ID, "new-hash"))

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
	assert.True(t, got.LastLoginAt.Equal(at))
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "missing", "h"), authcore.ErrUserNotFound)
	assert.ErrorIs(t, s.RecordLoginSuccess(ctx, "missing", at), authcore.ErrUserNotFound)
	assert.ErrorIs(t, s.ResetLock(ctx, "missing"), authcore.ErrUserNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	rec, err := s.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}
