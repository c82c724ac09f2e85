package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/room-booking/internal/persistence"
	"github.com/lib/pq"
)

// SQLSTATE codes the store maps onto persistence sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeExclusionViolation  = "23P01"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", persistence.ErrForeignKeyViolation, pgErr.Constraint)
		case codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
		case codeExclusionViolation:
			return fmt.Errorf("%w: %s", persistence.ErrOverlap, pgErr.Constraint)
		}
	}
	return err
}

func expectAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
