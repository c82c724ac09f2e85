package main

import (
	"context"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string, deletedAt time.Time) error {
	return a.repo.SoftDeleteRoom(ctx, id, deletedAt)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type meetingRepositoryAdapter struct {
	repo persistence.MeetingRepository
}

func newMeetingRepositoryAdapter(repo persistence.MeetingRepository) *meetingRepositoryAdapter {
	return &meetingRepositoryAdapter{repo: repo}
}

func (a *meetingRepositoryAdapter) WithRoomLock(ctx context.Context, roomID string, fn func(tx application.BookingTx) error) error {
	return a.repo.WithRoomLock(ctx, roomID, func(tx persistence.BookingTx) error {
		return fn(bookingTxAdapter{tx: tx})
	})
}

func (a *meetingRepositoryAdapter) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *meetingRepositoryAdapter) ListMeetings(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error) {
	models, err := a.repo.ListMeetings(ctx, toPersistenceFilter(filter))
	if err != nil {
		return nil, err
	}
	return toApplicationMeetings(models), nil
}

func (a *meetingRepositoryAdapter) UpdateApproval(ctx context.Context, meeting application.Meeting) error {
	return a.repo.UpdateMeetingApproval(ctx, toPersistenceMeeting(meeting))
}

func (a *meetingRepositoryAdapter) DeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error {
	return a.repo.SoftDeleteMeeting(ctx, id, deletedAt)
}

func (a *meetingRepositoryAdapter) ListInvitees(ctx context.Context, meetingID string) ([]application.Invitee, error) {
	models, err := a.repo.ListMeetingUsers(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	invitees := make([]application.Invitee, 0, len(models))
	for _, model := range models {
		invitees = append(invitees, toApplicationInvitee(model))
	}
	return invitees, nil
}

func (a *meetingRepositoryAdapter) GetInvitee(ctx context.Context, meetingID, userID string) (application.Invitee, error) {
	stored, err := a.repo.GetMeetingUser(ctx, meetingID, userID)
	if err != nil {
		return application.Invitee{}, err
	}
	return toApplicationInvitee(stored), nil
}

func (a *meetingRepositoryAdapter) UpdateInviteeStatus(ctx context.Context, inviteeID string, status scheduler.ResponseStatus, respondedAt time.Time) error {
	return a.repo.UpdateMeetingUserStatus(ctx, inviteeID, int(status), respondedAt)
}

type bookingTxAdapter struct {
	tx persistence.BookingTx
}

func (b bookingTxAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := b.tx.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (b bookingTxAdapter) ListRoomMeetings(ctx context.Context, roomID string) ([]application.Meeting, error) {
	models, err := b.tx.ListRoomMeetings(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return toApplicationMeetings(models), nil
}

func (b bookingTxAdapter) InsertMeeting(ctx context.Context, meeting application.Meeting) error {
	return b.tx.InsertMeeting(ctx, toPersistenceMeeting(meeting))
}

func (b bookingTxAdapter) InsertInvitee(ctx context.Context, invitee application.Invitee) error {
	return b.tx.InsertMeetingUser(ctx, toPersistenceInvitee(invitee))
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Location:  room.Location,
		Details:   room.Details,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		Capacity:  model.Capacity,
		Details:   model.Details,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:             meeting.ID,
		Subject:        meeting.Subject,
		Content:        meeting.Content,
		RoomID:         meeting.RoomID,
		CreatorID:      meeting.CreatorID,
		StartAt:        meeting.StartAt,
		EndAt:          meeting.EndAt,
		ApprovalStatus: string(meeting.ApprovalStatus),
		IsApproved:     meeting.IsApproved,
		ApprovedBy:     meeting.ApprovedBy,
		ApprovedAt:     meeting.ApprovedAt,
		CreatedAt:      meeting.CreatedAt,
		UpdatedAt:      meeting.UpdatedAt,
		DeletedAt:      meeting.DeletedAt,
	}
}

func toApplicationMeeting(model persistence.Meeting) application.Meeting {
	status := scheduler.ApprovalStatus(model.ApprovalStatus)
	if !status.Valid() {
		// Rows written before approval_status existed only carry is_approved.
		status = scheduler.ApprovalPending
		if model.IsApproved {
			status = scheduler.ApprovalApproved
		}
	}
	return application.Meeting{
		ID:             model.ID,
		Subject:        model.Subject,
		Content:        model.Content,
		RoomID:         model.RoomID,
		CreatorID:      model.CreatorID,
		StartAt:        model.StartAt,
		EndAt:          model.EndAt,
		ApprovalStatus: status,
		IsApproved:     model.IsApproved,
		ApprovedBy:     model.ApprovedBy,
		ApprovedAt:     model.ApprovedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		DeletedAt:      model.DeletedAt,
	}
}

func toApplicationMeetings(models []persistence.Meeting) []application.Meeting {
	if len(models) == 0 {
		return nil
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings
}

func toPersistenceInvitee(invitee application.Invitee) persistence.MeetingUser {
	return persistence.MeetingUser{
		ID:         invitee.ID,
		MeetingID:  invitee.MeetingID,
		UserID:     invitee.UserID,
		Status:     int(invitee.Status),
		ResponseAt: invitee.ResponseAt,
		CreatedAt:  invitee.CreatedAt,
	}
}

func toApplicationInvitee(model persistence.MeetingUser) application.Invitee {
	return application.Invitee{
		ID:         model.ID,
		MeetingID:  model.MeetingID,
		UserID:     model.UserID,
		Status:     scheduler.ResponseStatus(model.Status),
		ResponseAt: model.ResponseAt,
		CreatedAt:  model.CreatedAt,
	}
}

// toPersistenceFilter maps the overlap window [From, To) onto the store's
// column bounds: a meeting overlaps when it ends after From and starts
// before To.
func toPersistenceFilter(filter application.MeetingFilter) persistence.MeetingFilter {
	return persistence.MeetingFilter{
		RoomID:         filter.RoomID,
		EndsAfter:      filter.From,
		StartsBefore:   filter.To,
		IncludeDeleted: filter.IncludeDeleted,
	}
}
