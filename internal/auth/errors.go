// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"net/http"

	"github.com/agendia/auth-service/internal/platform/apperr"
)

// Classified authentication failures.
//
// # Security
//
// Every failure that leaves this package carries a distinct machine code so
// clients never parse message strings. The messages themselves are written
// not to leak which internal check failed where that would aid account
// enumeration: [ErrInvalidCredentials] covers both unknown-email and
// wrong-password uniformly.
var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = apperr.WithCode(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")

	// ErrEmailTaken is returned when registration hits the email unique constraint.
	ErrEmailTaken = apperr.WithCode(http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")

	// ErrAliasTaken is returned when registration hits the alias unique constraint.
	ErrAliasTaken = apperr.WithCode(http.StatusConflict, "ALIAS_TAKEN", "This alias is already in use")

	// ErrRefreshTokenInvalid covers unknown, malformed, and revoked refresh secrets.
	ErrRefreshTokenInvalid = apperr.WithCode(http.StatusUnauthorized, "REFRESH_TOKEN_INVALID", "Invalid refresh token")

	// ErrRefreshTokenExpired is returned for a known session past its expiry.
	ErrRefreshTokenExpired = apperr.WithCode(http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "Refresh token has expired")

	// ErrAccountDeleted is returned for any operation against a soft-deleted account.
	ErrAccountDeleted = apperr.WithCode(http.StatusUnauthorized, "ACCOUNT_DELETED", "This account has been deleted")

	// ErrAccountInactive is returned for any operation against a disabled account.
	ErrAccountInactive = apperr.WithCode(http.StatusForbidden, "ACCOUNT_INACTIVE", "This account is inactive")

	// ErrSessionNotFound is returned when a managed session id does not exist.
	ErrSessionNotFound = apperr.WithCode(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")

	// ErrSessionForbidden is returned when a session belongs to a different account.
	ErrSessionForbidden = apperr.WithCode(http.StatusForbidden, "SESSION_FORBIDDEN", "Session belongs to another account")

	// ErrTooManyAttempts is returned when the login throttle budget is exhausted.
	ErrTooManyAttempts = apperr.WithCode(http.StatusTooManyRequests, "RATE_LIMITED", "Too many failed login attempts. Try again later.")
)
