// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendia/auth-service/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip verifies that a hashed password validates against
its own plaintext and rejects everything else.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	digest, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", digest))
	assert.False(t, sec.CheckPasswordHash("correct horse battery", digest))
	assert.False(t, sec.CheckPasswordHash("", digest))
}

/*
TestHashPassword_Salting verifies the salting property: two hashes of the
same password differ, yet both verify.
*/
func TestHashPassword_Salting(t *testing.T) {
	first, err := sec.HashPassword("longpass1")
	require.NoError(t, err)

	second, err := sec.HashPassword("longpass1")
	require.NoError(t, err)

	// Random salt makes the encodings distinct
	assert.NotEqual(t, first, second)

	// Both still verify the original password
	assert.True(t, sec.CheckPasswordHash("longpass1", first))
	assert.True(t, sec.CheckPasswordHash("longpass1", second))
}

/*
TestCheckPasswordHash_MalformedDigest verifies that a corrupted digest is a
verification failure, never a panic.
*/
func TestCheckPasswordHash_MalformedDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty_digest", ""},
		{"garbage_digest", "not-a-bcrypt-hash"},
		{"truncated_digest", "$2a$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, sec.CheckPasswordHash("any-password", tt.digest))
		})
	}
}
