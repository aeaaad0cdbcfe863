// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL is the fallback lifetime of a JWT access token
	// when configuration does not override it.
	DefaultAccessTokenTTL = 60 * time.Minute

	// RefreshTokenTTL is the duration a session/refresh secret remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh secret.
	// 32 bytes = 256 bits of entropy, rendered as 64 hex characters.
	RefreshTokenLength = 32

	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8

	// PasswordMaxLength caps input before bcrypt truncates it at 72 bytes.
	PasswordMaxLength = 72

	// AliasMaxLength caps the public alias.
	AliasMaxLength = 32

	// NameMaxLength caps the first/last name fields.
	NameMaxLength = 100
)

// # Login Throttling

const (
	// MaxLoginAttempts is the failed-attempt budget per email within the window.
	MaxLoginAttempts = 10

	// LoginAttemptWindow is the TTL of the failed-attempt counter.
	LoginAttemptWindow = 15 * time.Minute
)
