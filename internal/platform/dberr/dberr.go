// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Why constraint inspection?
//
// Uniqueness (email, alias, refresh digest) is enforced by the database, not
// by check-then-insert — a pre-check alone is a race under concurrent
// registration. Repositories therefore need to recognize a unique-violation
// rejection and translate it by constraint name.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendia/auth-service/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// Unknown query errors become opaque Internal Server Errors. They are not
	// security decisions and must stay distinct from the classified auth errors.
	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// rejection (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// ConstraintName returns the violated constraint's name for a unique-violation
// error, or an empty string when err is not one.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}
