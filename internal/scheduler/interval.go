// Package scheduler holds the booking rules that decide whether a meeting
// room is free: half-open interval arithmetic, the per-room availability
// check, and the approval state machines for meetings and their invitees.
//
// Everything in this package is pure. Persistence, authorization and
// notification live in the application layer.
package scheduler

import (
	"errors"
	"time"
)

// ErrMalformedInterval is returned when an interval would end before it starts.
var ErrMalformedInterval = errors.New("scheduler: interval ends before it starts")

// Interval is a half-open time range [Start, End) expressed in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval a booking starting at start and lasting
// duration occupies.
func NewInterval(start time.Time, duration time.Duration) (Interval, error) {
	if duration < 0 {
		return Interval{}, ErrMalformedInterval
	}
	start = start.UTC()
	return Interval{Start: start, End: start.Add(duration)}, nil
}

// IntervalBetween builds an interval from explicit bounds.
func IntervalBetween(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, ErrMalformedInterval
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration reports the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Empty reports whether the interval covers no instant.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Overlaps reports whether two intervals share at least one instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether instant falls within interval.
func Contains(interval Interval, instant time.Time) bool {
	return !instant.Before(interval.Start) && instant.Before(interval.End)
}
