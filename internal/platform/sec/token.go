// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a cryptographically random opaque token encoded
// as lowercase hex.
//
// # Entropy
//
// byteLength is the number of random bytes; 32 bytes yields a 256-bit secret
// (64 hex characters), which makes digest collisions operationally impossible.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken computes the SHA-256 hex digest of an opaque token.
//
// Refresh secrets are stored server-side only as this digest. A fast
// deterministic hash is correct here (not bcrypt): the input is already
// high-entropy random data and is looked up on every refresh call.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
