// Package postgres is an authcore.UserStore on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/MrEthical07/authcore"
)

// Schema creates the credentials table. Migrate applies it.
const Schema = `CREATE TABLE IF NOT EXISTS credentials (
	id              UUID PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	locked          BOOLEAN NOT NULL DEFAULT FALSE,
	failed_attempts INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL,
	last_login_at   TIMESTAMPTZ
)`

const selectColumns = `id::text, email, password_hash, locked, failed_attempts, created_at, last_login_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements authcore.UserStore.
type Store struct {
	pool querier
	now  func() time.Time
}

// New wraps an existing pool. *pgxpool.Pool satisfies querier.
func New(pool querier) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return pool, nil
}

// Migrate creates the credentials table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create credentials table").Wrap(err)
	}
	return nil
}

// GetByEmail looks up a record by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (authcore.CredentialRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM credentials WHERE email = $1`, email)
	rec, err := scanRecord(row)
	if err != nil {
		return authcore.CredentialRecord{}, wrap(err, "get by email")
	}
	return rec, nil
}

// GetByID looks up a record by id. Ids that are not UUIDs miss.
func (s *Store) GetByID(ctx context.Context, userID string) (authcore.CredentialRecord, error) {
	if !validID(userID) {
		return authcore.CredentialRecord{}, authcore.ErrUserNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM credentials WHERE id = $1`, userID)
	rec, err := scanRecord(row)
	if err != nil {
		return authcore.CredentialRecord{}, wrap(err, "get by id", "user_id", userID)
	}
	return rec, nil
}

// Create inserts a record. A unique violation on email maps to
// authcore.ErrAccountExists.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (authcore.CredentialRecord, error) {
	rec := authcore.CredentialRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO credentials (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Email, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return authcore.CredentialRecord{}, oops.With("operation", "create").Wrap(authcore.ErrAccountExists)
		}
		return authcore.CredentialRecord{}, oops.With("operation", "create").Wrap(err)
	}

	return rec, nil
}

// RecordLoginFailure increments and locks in one UPDATE ... RETURNING.
func (s *Store) RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (authcore.CredentialRecord, error) {
	if !validID(userID) {
		return authcore.CredentialRecord{}, authcore.ErrUserNotFound
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE credentials SET failed_attempts = failed_attempts + 1, locked = locked OR failed_attempts + 1 >= $2 WHERE id = $1 RETURNING `+selectColumns,
		userID, lockThreshold)
	rec, err := scanRecord(row)
	if err != nil {
		return authcore.CredentialRecord{}, wrap(err, "record login failure", "user_id", userID)
	}
	return rec, nil
}

// RecordLoginSuccess zeroes the failure count and stamps last_login_at.
func (s *Store) RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error {
	return s.exec(ctx, "record login success", userID,
		`UPDATE credentials SET failed_attempts = 0, last_login_at = $2 WHERE id = $1`,
		at.UTC())
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return s.exec(ctx, "update password hash", userID,
		`UPDATE credentials SET password_hash = $2 WHERE id = $1`,
		passwordHash)
}

// ResetLock clears the lock flag and failure count.
func (s *Store) ResetLock(ctx context.Context, userID string) error {
	return s.exec(ctx, "reset lock", userID,
		`UPDATE credentials SET locked = FALSE, failed_attempts = 0 WHERE id = $1`)
}

func (s *Store) exec(ctx context.Context, op, userID, sql string, args ...any) error {
	if !validID(userID) {
		return authcore.ErrUserNotFound
	}

	tag, err := s.pool.Exec(ctx, sql, append([]any{userID}, args...)...)
	if err != nil {
		return oops.With("operation", op).With("user_id", userID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (authcore.CredentialRecord, error) {
	var (
		rec       authcore.CredentialRecord
		lastLogin *time.Time
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.Locked, &rec.FailedAttempts, &rec.CreatedAt, &lastLogin); err != nil {
		return authcore.CredentialRecord{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if lastLogin != nil {
		rec.LastLoginAt = lastLogin.UTC()
	}
	return rec, nil
}

func wrap(err error, op string, kv ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		err = authcore.ErrUserNotFound
	}
	return oops.With("operation", op).With(kv...).Wrap(err)
}

// validID rejects ids that could never match the uuid column.
func validID(userID string) bool {
	_, err := uuid.Parse(userID)
	return err == nil
}

var _ authcore.UserStore = (*Store)(nil)
