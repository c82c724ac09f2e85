package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a write references a missing row.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned when the store refuses a meeting whose interval
	// overlaps another live meeting in the same room.
	ErrOverlap = errors.New("persistence: meeting overlaps existing booking")
)
