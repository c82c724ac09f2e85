package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

var (
	roomCounter    uint64
	meetingCounter uint64
)

var referenceTime = time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant fixtures are built around.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic meeting room record.
type RoomFixture struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Details   string
	CreatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a room fixture with unique identifiers.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  fmt.Sprintf("Floor %d", idx%10+1),
		Capacity:  8,
		CreatedAt: referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomCapacity overrides the default capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// Persistence returns the fixture as a storage row.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Details:   f.Details,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Input returns the fixture as a room creation request.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:     f.Name,
		Location: f.Location,
		Capacity: f.Capacity,
		Details:  f.Details,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture is a deterministic booking of a room.
type MeetingFixture struct {
	ID         string
	Subject    string
	RoomID     string
	CreatorID  string
	Start      time.Time
	Duration   time.Duration
	InviteeIDs []string
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a one-hour meeting starting at ReferenceTime.
func NewMeetingFixture(roomID string, opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	fixture := MeetingFixture{
		ID:        fmt.Sprintf("meeting-%03d", idx),
		Subject:   fmt.Sprintf("Meeting %03d", idx),
		RoomID:    roomID,
		CreatorID: "user-001",
		Start:     referenceTime,
		Duration:  time.Hour,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the generated meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) { f.ID = id }
}

// WithMeetingWindow sets the start instant and duration.
func WithMeetingWindow(start time.Time, duration time.Duration) MeetingOption {
	return func(f *MeetingFixture) {
		f.Start = start
		f.Duration = duration
	}
}

// WithMeetingCreator overrides the creating user.
func WithMeetingCreator(userID string) MeetingOption {
	return func(f *MeetingFixture) { f.CreatorID = userID }
}

// WithInvitees sets the invited user IDs.
func WithInvitees(userIDs ...string) MeetingOption {
	return func(f *MeetingFixture) { f.InviteeIDs = append([]string(nil), userIDs...) }
}

// Persistence returns the fixture as a pending storage row.
func (f MeetingFixture) Persistence() persistence.Meeting {
	start := f.Start.UTC()
	return persistence.Meeting{
		ID:             f.ID,
		Subject:        f.Subject,
		RoomID:         f.RoomID,
		CreatorID:      f.CreatorID,
		StartAt:        start,
		EndAt:          start.Add(f.Duration),
		ApprovalStatus: string(scheduler.ApprovalPending),
		CreatedAt:      referenceTime.Add(-time.Hour),
		UpdatedAt:      referenceTime.Add(-time.Hour),
	}
}

// Input returns the fixture as a booking request.
func (f MeetingFixture) Input() application.MeetingInput {
	return application.MeetingInput{
		Subject:    f.Subject,
		RoomID:     f.RoomID,
		StartDate:  f.Start,
		Duration:   f.Duration,
		InviteeIDs: append([]string(nil), f.InviteeIDs...),
	}
}
