package application

import (
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Roles  []string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
	Details  string
}

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// OccupiedNow and CurrentMeetingID are computed by ListRooms and GetRoom
	// and never persisted.
	OccupiedNow      bool
	CurrentMeetingID string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// MeetingInput captures caller provided booking fields. StartDate may carry
// any offset; it is normalized to UTC before any comparison.
type MeetingInput struct {
	Subject    string
	Content    string
	RoomID     string
	StartDate  time.Time
	Duration   time.Duration
	InviteeIDs []string
}

// Meeting represents a booked room interval [StartAt, EndAt) in UTC.
type Meeting struct {
	ID             string
	Subject        string
	Content        string
	RoomID         string
	CreatorID      string
	StartAt        time.Time
	EndAt          time.Time
	ApprovalStatus scheduler.ApprovalStatus
	IsApproved     bool
	ApprovedBy     *string
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Approval returns the meeting's approval state machine.
func (m Meeting) Approval() scheduler.Approval {
	return scheduler.Approval{
		Status:     m.ApprovalStatus,
		IsApproved: m.IsApproved,
		ApprovedBy: m.ApprovedBy,
		ApprovedAt: m.ApprovedAt,
	}
}

func (m *Meeting) applyApproval(approval scheduler.Approval) {
	m.ApprovalStatus = approval.Status
	m.IsApproved = approval.IsApproved
	m.ApprovedBy = approval.ApprovedBy
	m.ApprovedAt = approval.ApprovedAt
}

// Booking returns the room claim the meeting makes.
func (m Meeting) Booking() scheduler.Booking {
	return scheduler.Booking{
		MeetingID: m.ID,
		RoomID:    m.RoomID,
		Interval:  scheduler.Interval{Start: m.StartAt, End: m.EndAt},
		DeletedAt: m.DeletedAt,
	}
}

// Invitee records one user's invitation to a meeting and their answer.
type Invitee struct {
	ID         string
	MeetingID  string
	UserID     string
	Status     scheduler.ResponseStatus
	ResponseAt *time.Time
	CreatedAt  time.Time
}

// CreateMeetingParams wraps the data required to book a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// CreatedMeeting is the result of a successful booking.
type CreatedMeeting struct {
	Meeting  Meeting
	RoomName string
	Invitees []Invitee
}

// MeetingDetails is a meeting with its invitees and room name.
type MeetingDetails struct {
	Meeting  Meeting
	RoomName string
	Invitees []Invitee
}

// MeetingFilter narrows meeting listings. From and To select meetings that
// overlap [From, To).
type MeetingFilter struct {
	RoomID         string
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// RespondParams wraps an invitee's answer to a meeting invitation.
type RespondParams struct {
	Principal Principal
	MeetingID string
	UserID    string
	Status    scheduler.ResponseStatus
}

// MeetingEvent describes a state change published to notification subscribers.
type MeetingEvent struct {
	Type       string
	MeetingID  string
	RoomID     string
	ActorID    string
	UserID     string
	Status     string
	OccurredAt time.Time
}

// Event types published by MeetingService.
const (
	EventMeetingCreated      = "meeting.created"
	EventMeetingApproved     = "meeting.approved"
	EventMeetingRejected     = "meeting.rejected"
	EventMeetingDeleted      = "meeting.deleted"
	EventInvitationResponded = "invitation.responded"
)
