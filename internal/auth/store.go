// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given (normalized) email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByAlias returns the account with the given (normalized) alias.

		Parameters:
		  - context: context.Context
		  - alias: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByAlias(context context.Context, alias string) (*User, error)

	/*
		Create persists a brand-new account.

		Uniqueness of email and alias is enforced by database constraints,
		not by pre-checks: a concurrent duplicate insert surfaces as a
		unique-violation error the caller classifies.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures, including unique violations
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateLastLogin stamps the account's last successful login time.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - loginTime: time.Time

		Returns:
		  - error: Persistence failures
	*/
	UpdateLastLogin(context context.Context, userID string, loginTime time.Time) error

	/*
		MarkDeleted soft-deletes the account without removing the row.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - deletedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	MarkDeleted(context context.Context, userID string, deletedAt time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
//
// Deleting a row IS revocation. None of the Delete methods treat an absent
// row as an error; idempotency belongs to this layer, visibility decisions
// belong to the service.
type SessionRepository interface {

	/*
		Create persists a new session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the session matching the given secret digest.

		The lookup intentionally does NOT filter on expiry: the service must
		see expired rows to distinguish REFRESH_TOKEN_EXPIRED from
		REFRESH_TOKEN_INVALID and to run the owner-state checks first.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		FindByID returns the session with the given ID.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, sessionID string) (*Session, error)

	/*
		ListByUser returns all sessions belonging to the userID, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []Session: Session metadata (digests stay unserialized)
		  - error: Database retrieval failures
	*/
	ListByUser(context context.Context, userID string) ([]Session, error)

	/*
		Delete removes exactly one session row. Deleting an absent row is not
		an error.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionID string) error

	/*
		DeleteAllByUser removes every session row belonging to the userID.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteAllByUser(context context.Context, userID string) error

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the
		past. Expiry is enforced lazily at validation time; this sweep is
		purely operational hygiene.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Number of rows removed
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}

// # Transactional Composites

// TxStore defines the multi-write operations that must be atomic.
//
// A crash mid-operation must never leave a session live for a deleted
// account, or a recorded login without its session.
type TxStore interface {

	/*
		CreateSessionAndStampLogin inserts the session and updates the
		owner's last_login_at inside one transaction.

		Parameters:
		  - context: context.Context
		  - session: *Session
		  - loginTime: time.Time

		Returns:
		  - error: Persistence failures
	*/
	CreateSessionAndStampLogin(context context.Context, session *Session, loginTime time.Time) error

	/*
		SoftDeleteAndRevokeAll marks the account deleted and removes all its
		sessions inside one transaction.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - deletedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	SoftDeleteAndRevokeAll(context context.Context, userID string, deletedAt time.Time) error
}

// # Token Issuance

// TokenProvider defines the access-token minting contract.
// Implemented by [sec.TokenService].
type TokenProvider interface {

	/*
		GenerateAccessToken mints a signed access token for the user.

		Parameters:
		  - userID: string
		  - timeToLive: time.Duration

		Returns:
		  - string: Compact signed token
		  - error: Signing failures
	*/
	GenerateAccessToken(userID string, timeToLive time.Duration) (string, error)
}

// # Volatile Data Access

// LoginThrottle defines the contract for the failed-login counter.
type LoginThrottle interface {

	/*
		RecordFailure increments the failed-attempt counter for the email and
		returns the new count. The counter expires on its own after the
		attempt window.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - int64: Attempt count including this failure
		  - error: Store failures
	*/
	RecordFailure(context context.Context, email string) (int64, error)

	/*
		Attempts returns the current failed-attempt count for the email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - int64: Current count (0 when no counter exists)
		  - error: Store failures
	*/
	Attempts(context context.Context, email string) (int64, error)

	/*
		Clear removes the counter after a successful login.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Store failures
	*/
	Clear(context context.Context, email string) error
}
