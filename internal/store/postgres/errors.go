package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recordbase/recordbase/internal/domain"
)

// Postgres error codes this layer distinguishes.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
)

// mapError converts pgx errors into domain errors so nothing above this
// package sees a raw driver failure.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure:
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, domain.ErrConflict)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
