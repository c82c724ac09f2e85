package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a live room already uses the requested name.
	ErrAlreadyExists = errors.New("application: already exists")

	// ErrRoomNotFound is returned for unknown or soft-deleted rooms.
	ErrRoomNotFound = fmt.Errorf("%w: room", ErrNotFound)
	// ErrMeetingNotFound is returned for unknown or soft-deleted meetings.
	ErrMeetingNotFound = fmt.Errorf("%w: meeting", ErrNotFound)
	// ErrInvitationNotFound is returned when the user was not invited to the meeting.
	ErrInvitationNotFound = fmt.Errorf("%w: invitation", ErrNotFound)

	// ErrRoomNotAvailable is returned when the requested interval overlaps a live meeting.
	ErrRoomNotAvailable = errors.New("application: room not available")
	// ErrBookingConflict is returned when storage rejected the booking because
	// a concurrent writer claimed the interval first.
	ErrBookingConflict = fmt.Errorf("%w: concurrent booking", ErrRoomNotAvailable)
)

// AvailabilityError reports the meeting that blocks a requested booking.
type AvailabilityError struct {
	RoomID               string
	ConflictingMeetingID string
}

// Error implements the error interface.
func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("application: room %s not available: overlaps meeting %s", e.RoomID, e.ConflictingMeetingID)
}

// Is lets errors.Is match ErrRoomNotAvailable.
func (e *AvailabilityError) Is(target error) bool {
	return target == ErrRoomNotAvailable
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
