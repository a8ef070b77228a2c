// Package sqlite is an authcore.UserStore on a local SQLite file, using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/MrEthical07/authcore"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	locked          INTEGER NOT NULL DEFAULT 0,
	failed_attempts INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL,
	last_login_at   INTEGER NOT NULL DEFAULT 0
)`

const selectColumns = `id, email, password_hash, locked, failed_attempts, created_at, last_login_at`

// Store persists credential records in a single table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetByEmail looks up a record by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (authcore.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM credentials WHERE email = ?`, email)
	return scanRecord(row)
}

// GetByID looks up a record by id.
func (s *Store) GetByID(ctx context.Context, userID string) (authcore.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM credentials WHERE id = ?`, userID)
	return scanRecord(row)
}

// Create inserts a record under a fresh UUID.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (authcore.CredentialRecord, error) {
	rec := authcore.CredentialRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Email, rec.PasswordHash, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.CredentialRecord{}, fmt.Errorf("create %q: %w", email, authcore.ErrAccountExists)
		}
		return authcore.CredentialRecord{}, fmt.Errorf("failed to insert credential: %w", err)
	}

	return rec, nil
}

// RecordLoginFailure increments and locks in one UPDATE ... RETURNING.
func (s *Store) RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (authcore.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE credentials
		SET failed_attempts = failed_attempts + 1,
		    locked = CASE WHEN failed_attempts + 1 >= ? THEN 1 ELSE locked END
		WHERE id = ?
		RETURNING `+selectColumns,
		lockThreshold, userID,
	)
	return scanRecord(row)
}

// RecordLoginSuccess zeroes the failure count and stamps last_login_at.
func (s *Store) RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error {
	return s.exec(ctx, "record login success",
		`UPDATE credentials SET failed_attempts = 0, last_login_at = ? WHERE id = ?`,
		at.UTC().UnixMilli(), userID,
	)
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return s.exec(ctx, "update password hash",
		`UPDATE credentials SET password_hash = ? WHERE id = ?`,
		passwordHash, userID,
	)
}

// ResetLock clears the lock flag and failure count.
func (s *Store) ResetLock(ctx context.Context, userID string) error {
	return s.exec(ctx, "reset lock",
		`UPDATE credentials SET locked = 0, failed_attempts = 0 WHERE id = ?`,
		userID,
	)
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func scanRecord(row *sql.Row) (authcore.CredentialRecord, error) {
	var (
		rec       authcore.CredentialRecord
		locked    int
		createdAt int64
		lastLogin int64
	)
	err := row.Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &locked, &rec.FailedAttempts, &createdAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.CredentialRecord{}, authcore.ErrUserNotFound
		}
		return authcore.CredentialRecord{}, fmt.Errorf("failed to scan credential: %w", err)
	}

	rec.Locked = locked != 0
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastLogin != 0 {
		rec.LastLoginAt = time.UnixMilli(lastLogin).UTC()
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ authcore.UserStore = (*Store)(nil)
