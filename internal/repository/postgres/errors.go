package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dokudoku/internal/domain"
)

// IsPgDuplicateError checks for a unique constraint violation (23505).
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks for a "no rows" result.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks for a foreign key violation (23503).
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// WrapTransient classifies retryable failures. Timeouts, cancellations,
// pg connection-exception codes (class 08) and rollbacks forced by lock
// ordering (class 40: deadlock_detected, serialization_failure) surface as
// domain.TransientError so the caller can apply its retry policy.
func WrapTransient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.TransientError{Cause: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 &&
		(pgErr.Code[:2] == "08" || pgErr.Code[:2] == "40") {
		return &domain.TransientError{Cause: err}
	}
	if pgconn.Timeout(err) {
		return &domain.TransientError{Cause: err}
	}
	return err
}
