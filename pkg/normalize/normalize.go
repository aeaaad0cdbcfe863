// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
//
// # Why normalize at the edge?
//
// Email and alias uniqueness is enforced by database constraints, so two
// spellings of the same identifier must collapse to one canonical form
// before they reach the store. Doing it here keeps every caller (register,
// login, lookups) consistent.
package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/text/secure/precis"
)

// Email canonicalizes an email address for storage and comparison.
//
// The local part of an address is case-sensitive per RFC 5321, but no real
// mail provider treats it that way; full lowercasing matches the citext
// semantics of the users table.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Alias canonicalizes a public alias using the PRECIS UsernameCaseMapped
// profile (RFC 8265).
//
// # Returns
//
// The canonical form, or an error when the input contains code points that
// are not allowed in identifiers (bidi controls, unassigned points, etc).
func Alias(alias string) (string, error) {
	canonical, err := precis.UsernameCaseMapped.String(strings.TrimSpace(alias))
	if err != nil {
		return "", fmt.Errorf("normalize: invalid alias: %w", err)
	}
	return canonical, nil
}
