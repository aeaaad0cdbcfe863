// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendia/auth-service/pkg/normalize"
)

/*
TestEmail verifies trimming and lowercasing.
*/
func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already_canonical", "ana@agendia.app", "ana@agendia.app"},
		{"mixed_case", "Ana@Agendia.App", "ana@agendia.app"},
		{"surrounding_space", "  ana@agendia.app  ", "ana@agendia.app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Email(tt.input))
		})
	}
}

/*
TestAlias verifies PRECIS case mapping and rejection of disallowed code points.
*/
func TestAlias(t *testing.T) {
	t.Run("case_mapped", func(t *testing.T) {
		got, err := normalize.Alias("AnaGarcia")
		require.NoError(t, err)
		assert.Equal(t, "anagarcia", got)
	})

	t.Run("trimmed", func(t *testing.T) {
		got, err := normalize.Alias("  ana  ")
		require.NoError(t, err)
		assert.Equal(t, "ana", got)
	})

	t.Run("rejects_bidi_control", func(t *testing.T) {
		_, err := normalize.Alias("ana‮garcia")
		assert.Error(t, err)
	})

	t.Run("rejects_empty", func(t *testing.T) {
		_, err := normalize.Alias("   ")
		assert.Error(t, err)
	})
}
