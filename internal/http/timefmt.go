package http

import (
	"errors"
	"strings"
	"time"
)

var errMissingOffset = errors.New("timestamp must be RFC3339 with an explicit offset")

// parseInstant parses an RFC3339 timestamp. Values without an offset are
// rejected so a wall-clock time is never interpreted in the server's zone.
func parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errMissingOffset
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errMissingOffset
	}
	return parsed.UTC(), nil
}

// clock renders instants in UTC and in the display zone.
type clock struct {
	location *time.Location
}

func newClock(location *time.Location) clock {
	if location == nil {
		location = time.UTC
	}
	return clock{location: location}
}

func (c clock) utc(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (c clock) local(t time.Time) string {
	return t.In(c.location).Format(time.RFC3339Nano)
}

func (c clock) utcPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := c.utc(*t)
	return &formatted
}
