// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agendia/auth-service/internal/platform/dberr"
)

// # User Repository

// userColumns is the canonical select list for hydrating a [User].
const userColumns = `
	id, email, alias, password_hash, first_name, last_name,
	language, timezone, is_active, is_deleted, deleted_at,
	last_login_at, created_at, updated_at`

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new account row.

Description: Uniqueness is delegated to the uq_users_email / uq_users_alias
constraints; a duplicate insert surfaces as SQLSTATE 23505, which the caller
classifies. The raw error is returned unwrapped for that reason.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Unique violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, email, alias, password_hash, first_name, last_name,
			language, timezone, is_active, is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Alias,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Language,
		user.Timezone,
		user.IsActive,
		user.IsDeleted,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an account by primary key.

Description: Soft-deleted rows are returned on purpose — the service's gate
decides what a deleted account may do, and it must see the deleted flag to
classify the failure.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return repository.scanOne(context, query, id)
}

/*
FindByEmail retrieves an account by its unique email (citext, case-insensitive).

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return repository.scanOne(context, query, email)
}

/*
FindByAlias retrieves an account by its unique alias (citext, case-insensitive).

Parameters:
  - context: context.Context
  - alias: string

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByAlias(context context.Context, alias string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE alias = $1`
	return repository.scanOne(context, query, alias)
}

/*
UpdateLastLogin stamps the account's last successful login time.

Parameters:
  - context: context.Context
  - userID: string
  - loginTime: time.Time

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) UpdateLastLogin(context context.Context, userID string, loginTime time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID, loginTime); err != nil {
		return fmt.Errorf("postgres_user_repo_update_last_login_failed: %w", err)
	}

	return nil
}

/*
MarkDeleted soft-deletes the account.

Description: The row survives for referential history. The flags flip
together so the gate never sees a half-deleted state.

Parameters:
  - context: context.Context
  - userID: string
  - deletedAt: time.Time

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkDeleted(context context.Context, userID string, deletedAt time.Time) error {
	const query = `
		UPDATE users
		SET is_deleted = TRUE, is_active = FALSE, deleted_at = $2, updated_at = $2
		WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID, deletedAt); err != nil {
		return fmt.Errorf("postgres_user_repo_mark_deleted_failed: %w", err)
	}

	return nil
}

// scanOne runs a single-row user query and hydrates the entity.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Alias,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Language,
		&user.Timezone,
		&user.IsActive,
		&user.IsDeleted,
		&user.DeletedAt,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberr.ErrNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_query_failed: %w", err)
	}

	return user, nil
}

// # Session Repository

// sessionColumns is the canonical select list for hydrating a [Session].
const sessionColumns = `
	id, user_id, token_hash, user_agent, ip_address, expires_at, created_at`

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the [SessionRepository].
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session row.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Database errors
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	if _, err := repository.pool.Exec(context, insertSessionQuery,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	); err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

const insertSessionQuery = `
	INSERT INTO user_sessions (
		id, user_id, token_hash, user_agent, ip_address, expires_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

/*
FindByTokenHash retrieves the session matching a refresh secret digest.

Description: No expiry filter — the service needs to see expired rows to
tell REFRESH_TOKEN_EXPIRED apart from REFRESH_TOKEN_INVALID and to run the
owner-state checks first.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE token_hash = $1`
	return repository.scanOne(context, query, tokenHash)
}

/*
FindByID retrieves a session by primary key.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Session: Hydrated entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresSessionRepository) FindByID(context context.Context, sessionID string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`
	return repository.scanOne(context, query, sessionID)
}

/*
ListByUser returns the account's sessions, newest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []Session: Hydrated entities
  - error: Database errors
*/
func (repository *PostgresSessionRepository) ListByUser(context context.Context, userID string) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var session Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TokenHash,
			&session.UserAgent,
			&session.IPAddress,
			&session.ExpiresAt,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_rows_failed: %w", err)
	}

	return sessions, nil
}

/*
Delete removes exactly one session row. Absent rows are not an error.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresSessionRepository) Delete(context context.Context, sessionID string) error {
	const query = `DELETE FROM user_sessions WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, sessionID); err != nil {
		return fmt.Errorf("postgres_session_repo_delete_failed: %w", err)
	}

	return nil
}

/*
DeleteAllByUser removes every session row belonging to the account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresSessionRepository) DeleteAllByUser(context context.Context, userID string) error {
	const query = `DELETE FROM user_sessions WHERE user_id = $1`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_session_repo_delete_all_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired removes session rows whose expiry has passed.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of rows removed
  - error: Database errors
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at < NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// scanOne runs a single-row session query and hydrates the entity.
func (repository *PostgresSessionRepository) scanOne(context context.Context, query string, arg any) (*Session, error) {
	session := &Session{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberr.ErrNotFound
		}
		return nil, fmt.Errorf("postgres_session_repo_query_failed: %w", err)
	}

	return session, nil
}

// # Transactional Store

// PostgresTxStore implements [TxStore] with explicit pgx transactions.
type PostgresTxStore struct {
	pool *pgxpool.Pool
}

// NewTxStore creates a new PostgreSQL implementation of the [TxStore].
func NewTxStore(pool *pgxpool.Pool) *PostgresTxStore {
	return &PostgresTxStore{pool: pool}
}

/*
CreateSessionAndStampLogin inserts the session and stamps last_login_at
inside one transaction.

Description: A crash between the two writes must never leave a recorded
login without its session, or vice versa.

Parameters:
  - context: context.Context
  - session: *Session
  - loginTime: time.Time

Returns:
  - error: Database errors (the transaction rolls back on any failure)
*/
func (store *PostgresTxStore) CreateSessionAndStampLogin(context context.Context, session *Session, loginTime time.Time) error {
	tx, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_tx_store_begin_failed: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer func() { _ = tx.Rollback(context) }()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = loginTime
	}

	if _, err := tx.Exec(context, insertSessionQuery,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	); err != nil {
		return fmt.Errorf("postgres_tx_store_session_insert_failed: %w", err)
	}

	const stampQuery = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := tx.Exec(context, stampQuery, session.UserID, loginTime); err != nil {
		return fmt.Errorf("postgres_tx_store_login_stamp_failed: %w", err)
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_tx_store_commit_failed: %w", err)
	}

	return nil
}

/*
SoftDeleteAndRevokeAll marks the account deleted and removes all of its
sessions inside one transaction.

Parameters:
  - context: context.Context
  - userID: string
  - deletedAt: time.Time

Returns:
  - error: Database errors (the transaction rolls back on any failure)
*/
func (store *PostgresTxStore) SoftDeleteAndRevokeAll(context context.Context, userID string, deletedAt time.Time) error {
	tx, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_tx_store_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(context) }()

	const deleteQuery = `
		UPDATE users
		SET is_deleted = TRUE, is_active = FALSE, deleted_at = $2, updated_at = $2
		WHERE id = $1`
	if _, err := tx.Exec(context, deleteQuery, userID, deletedAt); err != nil {
		return fmt.Errorf("postgres_tx_store_soft_delete_failed: %w", err)
	}

	const revokeQuery = `DELETE FROM user_sessions WHERE user_id = $1`
	if _, err := tx.Exec(context, revokeQuery, userID); err != nil {
		return fmt.Errorf("postgres_tx_store_revoke_all_failed: %w", err)
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_tx_store_commit_failed: %w", err)
	}

	return nil
}
