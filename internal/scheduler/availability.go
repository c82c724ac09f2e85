package scheduler

import (
	"sort"
	"time"
)

// Booking is an existing meeting's claim on a room.
type Booking struct {
	MeetingID string
	RoomID    string
	Interval  Interval
	DeletedAt *time.Time
}

// Deleted reports whether the booking has been soft-deleted.
func (b Booking) Deleted() bool {
	return b.DeletedAt != nil
}

// Availability is the outcome of checking a candidate interval against a room.
type Availability struct {
	RoomID    string
	Candidate Interval
	Conflicts []Booking
}

// Available reports whether no existing booking overlaps the candidate.
func (a Availability) Available() bool {
	return len(a.Conflicts) == 0
}

// FirstConflict returns the conflicting booking that starts earliest.
func (a Availability) FirstConflict() (Booking, bool) {
	if len(a.Conflicts) == 0 {
		return Booking{}, false
	}
	return a.Conflicts[0], true
}

// CheckAvailability decides whether candidate is free on roomID given the
// room's existing bookings. Soft-deleted bookings and bookings recorded for
// other rooms never block.
func CheckAvailability(roomID string, candidate Interval, existing []Booking) Availability {
	result := Availability{RoomID: roomID, Candidate: candidate}

	for _, booking := range existing {
		if booking.Deleted() || booking.RoomID != roomID {
			continue
		}
		if Overlaps(candidate, booking.Interval) {
			result.Conflicts = append(result.Conflicts, booking)
		}
	}

	sort.SliceStable(result.Conflicts, func(i, j int) bool {
		left, right := result.Conflicts[i], result.Conflicts[j]
		if left.Interval.Start.Equal(right.Interval.Start) {
			return left.MeetingID < right.MeetingID
		}
		return left.Interval.Start.Before(right.Interval.Start)
	})

	return result
}

// CurrentBooking returns the booking occupying the room at instant, if any.
func CurrentBooking(roomID string, instant time.Time, existing []Booking) (Booking, bool) {
	for _, booking := range existing {
		if booking.Deleted() || booking.RoomID != roomID {
			continue
		}
		if Contains(booking.Interval, instant) {
			return booking, true
		}
	}
	return Booking{}, false
}
