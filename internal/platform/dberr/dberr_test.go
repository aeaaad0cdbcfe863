// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package dberr_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendia/auth-service/internal/platform/apperr"
	"github.com/agendia/auth-service/internal/platform/dberr"
)

/*
TestWrap_Classification verifies the pgx-to-apperr error mapping.
*/
func TestWrap_Classification(t *testing.T) {
	t.Run("nil_passthrough", func(t *testing.T) {
		assert.Nil(t, dberr.Wrap(nil))
	})

	t.Run("no_rows_becomes_not_found", func(t *testing.T) {
		err := dberr.Wrap(pgx.ErrNoRows)
		assert.ErrorIs(t, err, dberr.ErrNotFound)
	})

	t.Run("unknown_becomes_internal", func(t *testing.T) {
		err := dberr.Wrap(errors.New("connection refused"))
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "INTERNAL_ERROR", ae.Code)
	})
}

/*
TestUniqueViolation verifies 23505 detection and constraint-name extraction.
*/
func TestUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "uq_users_email",
	}
	otherErr := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}

	assert.True(t, dberr.IsUniqueViolation(uniqueErr))
	assert.Equal(t, "uq_users_email", dberr.ConstraintName(uniqueErr))

	assert.False(t, dberr.IsUniqueViolation(otherErr))
	assert.Empty(t, dberr.ConstraintName(otherErr))

	assert.False(t, dberr.IsUniqueViolation(errors.New("plain error")))
	assert.Empty(t, dberr.ConstraintName(nil))
}
