// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendia/auth-service/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes
const testIssuer = "auth.test.local"

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, testIssuer)
	require.NoError(t, err)
	return service
}

/*
TestNewTokenService_SecretLength rejects secrets too short to resist brute force.
*/
func TestNewTokenService_SecretLength(t *testing.T) {
	_, err := sec.NewTokenService("short", testIssuer)
	assert.Error(t, err)

	_, err = sec.NewTokenService(testSecret, testIssuer)
	assert.NoError(t, err)
}

/*
TestTokenService_RoundTrip verifies that an issued token verifies and carries
the expected subject.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("user-123", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, testIssuer, claims.Issuer)
}

/*
TestTokenService_Expired verifies that a stale token fails with the expiry
classification, distinct from structural failures.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.True(t, sec.IsTokenExpired(err))
}

/*
TestTokenService_Invalid verifies that tampering, malformation, and key
mismatch all fold into the same TOKEN_INVALID failure.
*/
func TestTokenService_Invalid(t *testing.T) {
	service := newTokenService(t)

	valid, err := service.GenerateAccessToken("user-123", time.Hour)
	require.NoError(t, err)

	otherService, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", testIssuer)
	require.NoError(t, err)
	foreign, err := otherService.GenerateAccessToken("user-123", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"tampered_payload", valid[:len(valid)-4] + "zzzz"},
		{"wrong_key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
			assert.False(t, sec.IsTokenExpired(err))
		})
	}
}

/*
TestTokenService_EmptySubject verifies that a well-signed token without a
subject is rejected — identity assertions must name an identity.
*/
func TestTokenService_EmptySubject(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("", time.Hour)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}
