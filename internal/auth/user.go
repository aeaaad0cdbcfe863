// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

/*
Package auth implements the credential and session lifecycle for Agendia
accounts.

It defines the core domain entities (User, Session) and the logic for
registration, login, token refresh, and account lifecycle (deactivation,
soft deletion).

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
external dependencies and encapsulate all business rules related to
identity. Storage and transport are injected via the interfaces in
store.go.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered Agendia account.
//
// IsDeleted dominates IsActive: a soft-deleted account is permanently
// unauthenticatable no matter what the activity flag says.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Alias        *string    `json:"alias,omitempty"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Language     string     `json:"language,omitempty"`
	Timezone     string     `json:"timezone,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsDeleted    bool       `json:"-"` // Lifecycle flag; deleted accounts are never serialized anyway.
	DeletedAt    *time.Time `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session represents an issued refresh secret, bound to one device/login.
//
// The row is the sole source of truth for the secret's validity: deleting
// it is the revocation mechanism. There is no separate revoked flag.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"` // SHA-256 digest of the refresh secret. Omitted for security.
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// # Account State

// AccountState classifies an account for authorization gating.
type AccountState int

const (
	// StateActive means the account may authenticate and act.
	StateActive AccountState = iota
	// StateInactive means the account exists but is administratively disabled.
	StateInactive
	// StateDeleted means the account is soft-deleted and permanently locked out.
	StateDeleted
)

// StateOf derives the authorization state from the lifecycle flags.
// Deletion is checked first: it dominates the activity flag.
func StateOf(user *User) AccountState {
	switch {
	case user.IsDeleted:
		return StateDeleted
	case !user.IsActive:
		return StateInactive
	default:
		return StateActive
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail        = "email"
	FieldAlias        = "alias"
	FieldPassword     = "password"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldSessionID    = "sessionID"
	FieldUser         = "user"
)
