package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms. Deletion is soft.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SoftDeleteRoom(ctx context.Context, id string, deletedAt time.Time) error
}

// MeetingFilter narrows meeting queries.
type MeetingFilter struct {
	RoomID         string
	StartsBefore   *time.Time
	EndsAfter      *time.Time
	IncludeDeleted bool
}

// BookingTx is the view of the store available while a room's booking lock
// is held. Every call runs in the same transaction.
type BookingTx interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRoomMeetings(ctx context.Context, roomID string) ([]Meeting, error)
	InsertMeeting(ctx context.Context, meeting Meeting) error
	InsertMeetingUser(ctx context.Context, invitee MeetingUser) error
}

// MeetingRepository stores meetings and their invitees.
type MeetingRepository interface {
	// WithRoomLock runs fn in a transaction that excludes concurrent bookings
	// of roomID. The transaction commits only when fn returns nil.
	WithRoomLock(ctx context.Context, roomID string, fn func(tx BookingTx) error) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	UpdateMeetingApproval(ctx context.Context, meeting Meeting) error
	SoftDeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error
	ListMeetingUsers(ctx context.Context, meetingID string) ([]MeetingUser, error)
	GetMeetingUser(ctx context.Context, meetingID, userID string) (MeetingUser, error)
	UpdateMeetingUserStatus(ctx context.Context, id string, status int, responseAt time.Time) error
}
