package persistence

import "time"

// Room represents a bookable meeting room.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Meeting represents a room booking. StartAt and EndAt are UTC instants and
// describe the half-open interval [StartAt, EndAt).
type Meeting struct {
	ID             string
	Subject        string
	Content        string
	RoomID         string
	CreatorID      string
	StartAt        time.Time
	EndAt          time.Time
	ApprovalStatus string
	IsApproved     bool
	ApprovedBy     *string
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// MeetingUser records one invitee's response to a meeting. Status holds the
// ordinal 0 (pending), 1 (approved) or 2 (rejected).
type MeetingUser struct {
	ID         string
	MeetingID  string
	UserID     string
	Status     int
	ResponseAt *time.Time
	CreatedAt  time.Time
}
