// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing,
// refresh secret generation) from the domain logic. It acts as an
// Infrastructure service injected into the Application layer via the
// [TokenProvider] interface defined by the auth domain.
package sec

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agendia/auth-service/internal/platform/apperr"
)

// Classified token verification failures.
//
// # Security
//
// Every structural decoding failure folds into [ErrTokenInvalid] — callers
// must not be able to distinguish tampering from malformation, since both are
// untrusted input. Only a well-formed, correctly signed but stale token
// yields [ErrTokenExpired].
var (
	// ErrTokenInvalid covers bad signatures, malformed tokens, and wrong algorithms.
	ErrTokenInvalid = apperr.WithCode(http.StatusUnauthorized, "TOKEN_INVALID", "Invalid access token")

	// ErrTokenExpired covers tokens whose 'exp' claim has passed.
	ErrTokenExpired = apperr.WithCode(http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
)

// IsTokenExpired reports whether err is the classified expiry failure.
func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// The token is a self-contained assertion of {subject, expiry}: possession
// without signature validity is meaningless, and it carries no revocation
// list — its blast radius is capped by the short TTL.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the token subject (the account ID).
func (c *AuthClaims) UserID() string { return c.Subject }

// TokenService handles generation and verification of JWT tokens using HS256.
//
// # Scaling
//
// The scheme is symmetric: the same secret signs and verifies. Horizontal
// scaling therefore requires a shared configuration value, not shared
// runtime state.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from the server-held signing secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("sec: jwt secret must be at least 32 bytes, got %d", len(secret))
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateAccessToken creates a new signed JWT access token for a user.
func (service *TokenService) GenerateAccessToken(userID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// # Returns
//   - [*AuthClaims] when the signature and expiry are valid.
//   - [ErrTokenExpired] when the token is well-formed but stale.
//   - [ErrTokenInvalid] for every other failure.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return service.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil {
		// Expiry is the only failure a caller may distinguish.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
