// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agendia/auth-service/internal/platform/apperr"
	"github.com/agendia/auth-service/internal/platform/dberr"
	"github.com/agendia/auth-service/internal/platform/sec"
	"github.com/agendia/auth-service/pkg/normalize"
	"github.com/agendia/auth-service/pkg/uuidv7"
)

// # Service

// Service implements the credential and session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, gating,
// or revocation logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	txStore           TxStore
	tokenProvider     TokenProvider
	loginThrottle     LoginThrottle
	accessTokenTTL    time.Duration
}

// NewService constructs a new [Service] with necessary dependencies.
//
// accessTokenTTL <= 0 falls back to [DefaultAccessTokenTTL]. loginThrottle
// may be nil, which disables failed-attempt throttling (used in tests).
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	txStore TxStore,
	tokenProv TokenProvider,
	throttle LoginThrottle,
	accessTokenTTL time.Duration,
) *Service {
	if accessTokenTTL <= 0 {
		accessTokenTTL = DefaultAccessTokenTTL
	}

	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		txStore:           txStore,
		tokenProvider:     tokenProv,
		loginThrottle:     throttle,
		accessTokenTTL:    accessTokenTTL,
	}
}

// AccessTokenTTL reports the configured access token lifetime.
// Used by the HTTP layer for the expires_in response field.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.accessTokenTTL
}

// # Account Gating

/*
authorize is the single gate deciding whether an account may authenticate.

Every flow that touches an identity calls this at execution time — the state
is never cached — so the deleted/inactive rules cannot drift between the
login, refresh, and profile paths.

Returns:
  - nil for an active account
  - ErrAccountDeleted when the account is soft-deleted (dominates the activity flag)
  - ErrAccountInactive when the account is administratively disabled
*/
func (service *Service) authorize(user *User) error {
	switch StateOf(user) {
	case StateDeleted:
		return ErrAccountDeleted
	case StateInactive:
		return ErrAccountInactive
	default:
		return nil
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email     string
	Alias     *string
	Password  string
	FirstName string
	LastName  string
	Language  string
	Timezone  string
}

/*
Register validates, hashes, and persists a brand new account.

Description: Uniqueness of email and alias is enforced by the database
constraints, not by a pre-check — two concurrent registrations with the same
email both passing a pre-check is a race the constraint closes. The store's
unique-violation rejection is translated here by constraint name.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ErrEmailTaken, ErrAliasTaken, or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Canonicalize identifiers before they reach the unique indexes.
	email := normalize.Email(input.Email)

	var alias *string
	if input.Alias != nil && *input.Alias != "" {
		canonical, err := normalize.Alias(*input.Alias)
		if err != nil {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   FieldAlias,
				Message: "Contains characters that are not allowed",
			})
		}
		alias = &canonical
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Email:        email,
		Alias:        alias,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Language:     input.Language,
		Timezone:     input.Timezone,
		IsActive:     true,
	}

	// Persist the user. A concurrent duplicate surfaces as a unique violation.
	if err := service.userRepository.Create(context, user); err != nil {
		if classified := classifyUniqueViolation(err); classified != nil {
			return nil, classified
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// classifyUniqueViolation translates a 23505 rejection into the taken-errors
// by constraint name. Returns nil for anything else.
func classifyUniqueViolation(err error) error {
	switch dberr.ConstraintName(err) {
	case "uq_users_email":
		return ErrEmailTaken
	case "uq_users_alias":
		return ErrAliasTaken
	default:
		return nil
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	SessionID             string
	User                  *User
}

/*
Login validates credentials and issues the access token / refresh secret pair.

Description: Performs the constant-time password comparison, gates on account
state, then creates the tracking session and stamps last_login_at inside one
transaction — a failed login never creates a session.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: ErrInvalidCredentials, ErrAccountDeleted, ErrAccountInactive,
    ErrTooManyAttempts, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	email := normalize.Email(input.Email)

	// Throttle check runs before any password work so a brute-force burst
	// cannot buy bcrypt cycles.
	if service.loginThrottle != nil {
		attempts, err := service.loginThrottle.Attempts(context, email)
		if err == nil && attempts >= MaxLoginAttempts {
			return nil, ErrTooManyAttempts
		}
	}

	// Unknown email and wrong password collapse into the same failure to
	// prevent account enumeration.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			service.recordLoginFailure(context, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// Constant-time comparison in bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.recordLoginFailure(context, email)
		return nil, ErrInvalidCredentials
	}

	// State gating runs after the password check: a deleted or disabled
	// account is only revealed to a caller who holds the correct password.
	if err := service.authorize(user); err != nil {
		return nil, err
	}

	// Successful authentication clears the throttle budget.
	if service.loginThrottle != nil {
		_ = service.loginThrottle.Clear(context, email)
	}

	// Generate short-lived Access Token
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, service.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// Generate long-lived refresh secret. Only its digest is persisted.
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	loginTime := time.Now()
	expiresAt := loginTime.Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
		ExpiresAt: expiresAt,
	}

	// Session insert and last-login stamp commit or fail together.
	if err := service.txStore.CreateSessionAndStampLogin(context, session, loginTime); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	user.LastLoginAt = &loginTime

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		SessionID:             session.ID,
		User:                  user,
	}, nil
}

// recordLoginFailure bumps the throttle counter, ignoring store errors —
// throttling is best-effort and must never mask the credential failure.
func (service *Service) recordLoginFailure(context context.Context, email string) {
	if service.loginThrottle == nil {
		return
	}
	_, _ = service.loginThrottle.RecordFailure(context, email)
}

// # Refresh Flow

/*
validateRefresh resolves a presented refresh secret to its live session and
owner.

The check order is a hard security invariant, not an optimization:

 1. digest lookup        → ErrRefreshTokenInvalid
 2. owner lookup         → ErrRefreshTokenInvalid (owner row gone)
 3. owner soft-deleted   → ErrAccountDeleted
 4. owner inactive       → ErrAccountInactive
 5. expiry               → ErrRefreshTokenExpired

Identity-state checks run before the expiry check so a deleted account cannot
be distinguished from an expired token by probing, and so no access token can
ever be minted for a session whose owner is gone.
*/
func (service *Service) validateRefresh(context context.Context, rawSecret string) (*Session, *User, error) {
	tokenHash := sec.HashToken(rawSecret)

	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, nil, ErrRefreshTokenInvalid
		}
		return nil, nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, nil, ErrRefreshTokenInvalid
		}
		return nil, nil, fmt.Errorf("auth_service_refresh_owner_lookup_failed: %w", err)
	}

	if err := service.authorize(user); err != nil {
		return nil, nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, nil, ErrRefreshTokenExpired
	}

	return session, user, nil
}

/*
Refresh exchanges a valid refresh secret for a new access token.

Description: The presented secret and its session are NOT rotated or
invalidated — the same secret keeps working until logout, revocation, or
expiry. Replay resistance rests on the secret's entropy and the HttpOnly
cookie transport, not on single-use semantics.

Parameters:
  - context: context.Context
  - rawSecret: string

Returns:
  - *LoginSession: Fresh access token bound to the existing session
  - error: ErrRefreshTokenInvalid, ErrRefreshTokenExpired, ErrAccountDeleted,
    ErrAccountInactive, or internal failures
*/
func (service *Service) Refresh(context context.Context, rawSecret string) (*LoginSession, error) {
	session, user, err := service.validateRefresh(context, rawSecret)
	if err != nil {
		return nil, err
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, service.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          rawSecret,
		RefreshTokenExpiresAt: session.ExpiresAt,
		SessionID:             session.ID,
		User:                  user,
	}, nil
}

/*
Logout revokes the session identified by the presented refresh secret.

Description: Runs the full refresh validation first — a secret that would be
rejected by Refresh is rejected here with the same classified error — then
deletes the session row. Row deletion IS revocation.

Parameters:
  - context: context.Context
  - rawSecret: string

Returns:
  - error: Same classification as [Service.Refresh], or storage failures
*/
func (service *Service) Logout(context context.Context, rawSecret string) error {
	session, _, err := service.validateRefresh(context, rawSecret)
	if err != nil {
		return err
	}

	if err := service.sessionRepository.Delete(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Management

/*
LogoutAll revokes every session belonging to the authenticated account.

Parameters:
  - context: context.Context
  - userID: string (the verified token subject)

Returns:
  - error: Gating or storage failures
*/
func (service *Service) LogoutAll(context context.Context, userID string) error {
	user, err := service.resolveAccount(context, userID)
	if err != nil {
		return err
	}

	if err := service.sessionRepository.DeleteAllByUser(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_logout_all_failed: %w", err)
	}

	return nil
}

/*
ListSessions returns the account's sessions, newest first.

Description: Session metadata only — refresh digests never leave the store,
not even to the owning user.

Parameters:
  - context: context.Context
  - userID: string (the verified token subject)

Returns:
  - []Session: Session metadata
  - error: Gating or storage failures
*/
func (service *Service) ListSessions(context context.Context, userID string) ([]Session, error) {
	user, err := service.resolveAccount(context, userID)
	if err != nil {
		return nil, err
	}

	sessions, err := service.sessionRepository.ListByUser(context, user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_sessions_failed: %w", err)
	}

	return sessions, nil
}

/*
DeleteSession revokes one specific session owned by the account.

Description: The ownership check runs before the delete so one user cannot
revoke another's session by guessing an id.

Parameters:
  - context: context.Context
  - userID: string (the verified token subject)
  - sessionID: string

Returns:
  - error: ErrSessionNotFound, ErrSessionForbidden, gating or storage failures
*/
func (service *Service) DeleteSession(context context.Context, userID, sessionID string) error {
	user, err := service.resolveAccount(context, userID)
	if err != nil {
		return err
	}

	session, err := service.sessionRepository.FindByID(context, sessionID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}

	if session.UserID != user.ID {
		return ErrSessionForbidden
	}

	if err := service.sessionRepository.Delete(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_session_delete_failed: %w", err)
	}

	return nil
}

// # Account Lifecycle

/*
DeleteAccount soft-deletes the account and revokes all of its sessions.

Description: Both writes run inside one transaction — a crash mid-operation
must never leave a session live for a deleted account. The row survives for
referential history; the deleted flag makes it permanently unauthenticatable.

Parameters:
  - context: context.Context
  - userID: string (the verified token subject)

Returns:
  - error: Gating or storage failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	user, err := service.resolveAccount(context, userID)
	if err != nil {
		return err
	}

	if err := service.txStore.SoftDeleteAndRevokeAll(context, user.ID, time.Now()); err != nil {
		return fmt.Errorf("auth_service_delete_account_failed: %w", err)
	}

	return nil
}

/*
CurrentUser returns the authenticated account's profile.

Parameters:
  - context: context.Context
  - userID: string (the verified token subject)

Returns:
  - *User: Hydrated entity (password hash never serialized)
  - error: Gating or storage failures
*/
func (service *Service) CurrentUser(context context.Context, userID string) (*User, error) {
	return service.resolveAccount(context, userID)
}

// resolveAccount loads the token subject and applies the account gate.
//
// A verified token whose subject no longer resolves is treated as an invalid
// token: the signature proves nothing once the identity behind it is gone.
func (service *Service) resolveAccount(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, sec.ErrTokenInvalid
		}
		return nil, fmt.Errorf("auth_service_account_lookup_failed: %w", err)
	}

	if err := service.authorize(user); err != nil {
		return nil, err
	}

	return user, nil
}

// # Maintenance

/*
SweepExpiredSessions removes session rows whose expiry has passed.

Description: Expiry is enforced lazily at validation time; this sweep is
operational hygiene only and is never required for correctness.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of rows removed
  - error: Storage failures
*/
func (service *Service) SweepExpiredSessions(context context.Context) (int64, error) {
	removed, err := service.sessionRepository.DeleteExpired(context)
	if err != nil {
		return 0, fmt.Errorf("auth_service_sweep_failed: %w", err)
	}
	return removed, nil
}
