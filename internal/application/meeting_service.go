package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

// BookingTx is the unit of work a booking runs in while the room is locked.
type BookingTx interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRoomMeetings(ctx context.Context, roomID string) ([]Meeting, error)
	InsertMeeting(ctx context.Context, meeting Meeting) error
	InsertInvitee(ctx context.Context, invitee Invitee) error
}

// MeetingRepository captures the persistence operations needed by the service.
type MeetingRepository interface {
	// WithRoomLock runs fn atomically with respect to other bookings of roomID.
	// Nothing fn wrote survives unless it returns nil.
	WithRoomLock(ctx context.Context, roomID string, fn func(tx BookingTx) error) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	UpdateApproval(ctx context.Context, meeting Meeting) error
	DeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error
	ListInvitees(ctx context.Context, meetingID string) ([]Invitee, error)
	GetInvitee(ctx context.Context, meetingID, userID string) (Invitee, error)
	UpdateInviteeStatus(ctx context.Context, inviteeID string, status scheduler.ResponseStatus, respondedAt time.Time) error
}

// RoomLookup resolves live rooms.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// Notifier delivers meeting events to subscribers.
type Notifier interface {
	Publish(ctx context.Context, event MeetingEvent) error
}

// MeetingServiceConfig carries optional meeting service settings.
type MeetingServiceConfig struct {
	Policy   *Policy
	Notifier Notifier
	Logger   *slog.Logger
}

// MeetingService books rooms and drives the approval and invitation workflows.
type MeetingService struct {
	meetings    MeetingRepository
	rooms       RoomLookup
	idGenerator func() string
	now         func() time.Time
	policy      *Policy
	notifier    Notifier
	logger      *slog.Logger
}

// NewMeetingService constructs a meeting service with the provided dependencies.
func NewMeetingService(meetings MeetingRepository, rooms RoomLookup, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithConfig(meetings, rooms, idGenerator, now, MeetingServiceConfig{})
}

// NewMeetingServiceWithConfig constructs a meeting service with explicit settings.
func NewMeetingServiceWithConfig(meetings MeetingRepository, rooms RoomLookup, idGenerator func() string, now func() time.Time, config MeetingServiceConfig) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		policy:      defaultPolicy(config.Policy),
		notifier:    config.Notifier,
		logger:      defaultLogger(config.Logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting books a room for the requested interval. The room check,
// the availability check and every insert run in one unit of work holding
// the room's booking lock, so two overlapping requests cannot both succeed.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (created CreatedMeeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateMeeting",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("meeting_id", created.Meeting.ID, "invitee_count", len(created.Invitees)).
			InfoContext(ctx, "meeting created")
	}()

	if err = s.policy.require(params.Principal, PermissionMeetingCreate); err != nil {
		return
	}

	interval, inviteeIDs, vErr := validateMeetingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	now := s.now().UTC()
	roomID := strings.TrimSpace(params.Input.RoomID)
	meeting := Meeting{
		ID:        s.idGenerator(),
		Subject:   strings.TrimSpace(params.Input.Subject),
		Content:   params.Input.Content,
		RoomID:    roomID,
		CreatorID: params.Principal.UserID,
		StartAt:   interval.Start,
		EndAt:     interval.End,
		CreatedAt: now,
		UpdatedAt: now,
	}
	meeting.applyApproval(scheduler.PendingApproval())

	invitees := make([]Invitee, 0, len(inviteeIDs))
	for _, userID := range inviteeIDs {
		invitees = append(invitees, Invitee{
			ID:        s.idGenerator(),
			MeetingID: meeting.ID,
			UserID:    userID,
			Status:    scheduler.ResponsePending,
			CreatedAt: now,
		})
	}

	var roomName string
	err = s.meetings.WithRoomLock(ctx, roomID, func(tx BookingTx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return mapRoomRepoError(err)
		}

		existing, err := tx.ListRoomMeetings(ctx, roomID)
		if err != nil {
			return fmt.Errorf("list room meetings: %w", err)
		}
		bookings := make([]scheduler.Booking, 0, len(existing))
		for _, other := range existing {
			bookings = append(bookings, other.Booking())
		}

		availability := scheduler.CheckAvailability(roomID, interval, bookings)
		if conflict, ok := availability.FirstConflict(); ok {
			return &AvailabilityError{RoomID: roomID, ConflictingMeetingID: conflict.MeetingID}
		}

		if err := tx.InsertMeeting(ctx, meeting); err != nil {
			return err
		}
		for _, invitee := range invitees {
			if err := tx.InsertInvitee(ctx, invitee); err != nil {
				return err
			}
		}

		roomName = room.Name
		return nil
	})
	if err != nil {
		err = mapBookingError(err)
		return
	}

	created = CreatedMeeting{Meeting: meeting, RoomName: roomName, Invitees: invitees}
	s.publish(ctx, logger, MeetingEvent{
		Type:       EventMeetingCreated,
		MeetingID:  meeting.ID,
		RoomID:     meeting.RoomID,
		ActorID:    params.Principal.UserID,
		Status:     string(meeting.ApprovalStatus),
		OccurredAt: now,
	})
	return
}

// ApproveMeeting marks a meeting approved by the acting principal. Approving
// an approved meeting keeps the original approver and writes nothing.
func (s *MeetingService) ApproveMeeting(ctx context.Context, principal Principal, meetingID string) (meeting Meeting, err error) {
	return s.review(ctx, principal, meetingID, PermissionMeetingApprove, "ApproveMeeting")
}

// RejectMeeting marks a meeting rejected and clears any approval.
func (s *MeetingService) RejectMeeting(ctx context.Context, principal Principal, meetingID string) (meeting Meeting, err error) {
	return s.review(ctx, principal, meetingID, PermissionMeetingReject, "RejectMeeting")
}

func (s *MeetingService) review(ctx context.Context, principal Principal, meetingID string, permission Permission, operation string) (meeting Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"meeting_id", meetingID,
	)
	changed := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to review meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("approval_status", meeting.ApprovalStatus, "changed", changed).InfoContext(ctx, "meeting reviewed")
	}()

	if err = s.policy.require(principal, permission); err != nil {
		return
	}
	if s.meetings == nil {
		err = ErrMeetingNotFound
		return
	}

	meeting, err = s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	now := s.now().UTC()
	var next scheduler.Approval
	eventType := EventMeetingApproved
	if permission == PermissionMeetingApprove {
		next, changed, err = meeting.Approval().Approve(principal.UserID, now)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("approver", "approver is required")
			err = vErr
			return
		}
	} else {
		next, changed = meeting.Approval().Reject()
		eventType = EventMeetingRejected
	}
	if !changed {
		return
	}

	updated := meeting
	updated.applyApproval(next)
	updated.UpdatedAt = now
	if err = s.meetings.UpdateApproval(ctx, updated); err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	meeting = updated
	s.publish(ctx, logger, MeetingEvent{
		Type:       eventType,
		MeetingID:  meeting.ID,
		RoomID:     meeting.RoomID,
		ActorID:    principal.UserID,
		Status:     string(meeting.ApprovalStatus),
		OccurredAt: now,
	})
	return
}

// CheckRoomAvailability reports whether roomID is free for the interval
// starting at start and lasting duration. It writes nothing.
func (s *MeetingService) CheckRoomAvailability(ctx context.Context, principal Principal, roomID string, start time.Time, duration time.Duration) (availability scheduler.Availability, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if err = s.policy.require(principal, PermissionRoomView); err != nil {
		return
	}

	vErr := &ValidationError{}
	interval := validateInterval(start, duration, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil || s.meetings == nil {
		err = ErrRoomNotFound
		return
	}

	if _, err = s.rooms.GetRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	var meetings []Meeting
	meetings, err = s.meetings.ListMeetings(ctx, MeetingFilter{RoomID: roomID, From: &interval.Start, To: &interval.End})
	if err != nil {
		err = fmt.Errorf("list room meetings: %w", err)
		return
	}

	bookings := make([]scheduler.Booking, 0, len(meetings))
	for _, meeting := range meetings {
		bookings = append(bookings, meeting.Booking())
	}
	availability = scheduler.CheckAvailability(roomID, interval, bookings)

	s.loggerWith(ctx, "CheckRoomAvailability", "room_id", roomID, "available", availability.Available()).
		DebugContext(ctx, "availability checked")
	return
}

// RespondToInvitation records an invitee's answer. Invitees answer for
// themselves; answering for someone else needs meeting:respond_any.
func (s *MeetingService) RespondToInvitation(ctx context.Context, params RespondParams) (invitee Invitee, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RespondToInvitation",
		"principal_id", params.Principal.UserID,
		"meeting_id", params.MeetingID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record invitation response", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", invitee.Status.String()).InfoContext(ctx, "invitation response recorded")
	}()

	permission := PermissionMeetingRespond
	if params.UserID != params.Principal.UserID {
		permission = PermissionMeetingRespondAny
	}
	if err = s.policy.require(params.Principal, permission); err != nil {
		return
	}

	if params.Status != scheduler.ResponseApproved && params.Status != scheduler.ResponseRejected {
		vErr := &ValidationError{}
		vErr.add("status", "status must be approved or rejected")
		err = vErr
		return
	}
	if s.meetings == nil {
		err = ErrMeetingNotFound
		return
	}

	if _, err = s.meetings.GetMeeting(ctx, params.MeetingID); err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	invitee, err = s.meetings.GetInvitee(ctx, params.MeetingID, params.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			err = ErrInvitationNotFound
		}
		return
	}

	now := s.now().UTC()
	invitation := scheduler.Invitation{Status: invitee.Status, ResponseDate: invitee.ResponseAt}
	next, changed, respondErr := invitation.Respond(params.Status, now)
	if respondErr != nil {
		vErr := &ValidationError{}
		vErr.add("status", "status must be approved or rejected")
		err = vErr
		return
	}
	if !changed {
		return
	}

	if err = s.meetings.UpdateInviteeStatus(ctx, invitee.ID, next.Status, now); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvitationNotFound
		}
		return
	}

	invitee.Status = next.Status
	invitee.ResponseAt = next.ResponseDate
	s.publish(ctx, logger, MeetingEvent{
		Type:       EventInvitationResponded,
		MeetingID:  params.MeetingID,
		ActorID:    params.Principal.UserID,
		UserID:     params.UserID,
		Status:     invitee.Status.String(),
		OccurredAt: now,
	})
	return
}

// GetMeeting returns a live meeting with its invitees.
func (s *MeetingService) GetMeeting(ctx context.Context, principal Principal, meetingID string) (details MeetingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if err = s.policy.require(principal, PermissionMeetingView); err != nil {
		return
	}
	if s.meetings == nil {
		err = ErrMeetingNotFound
		return
	}

	details.Meeting, err = s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	details.Invitees, err = s.meetings.ListInvitees(ctx, meetingID)
	if err != nil {
		err = fmt.Errorf("list invitees: %w", err)
		return
	}

	if s.rooms != nil {
		// The room may have been deleted after booking.
		if room, roomErr := s.rooms.GetRoom(ctx, details.Meeting.RoomID); roomErr == nil {
			details.RoomName = room.Name
		}
	}
	return
}

// ListMeetings returns meetings matching filter ordered by start time.
// Soft-deleted meetings are listed only for principals allowed to delete.
func (s *MeetingService) ListMeetings(ctx context.Context, principal Principal, filter MeetingFilter) (meetings []Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListMeetings",
		"principal_id", principal.UserID,
		"room_id", filter.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(meetings)).InfoContext(ctx, "meetings listed")
	}()

	if err = s.policy.require(principal, PermissionMeetingView); err != nil {
		return
	}
	if filter.IncludeDeleted {
		if err = s.policy.require(principal, PermissionMeetingDelete); err != nil {
			return
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		vErr := &ValidationError{}
		vErr.add("to", "to must not be before from")
		err = vErr
		return
	}
	if s.meetings == nil {
		return nil, nil
	}

	meetings, err = s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		return
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		if meetings[i].StartAt.Equal(meetings[j].StartAt) {
			return meetings[i].ID < meetings[j].ID
		}
		return meetings[i].StartAt.Before(meetings[j].StartAt)
	})
	return
}

// DeleteMeeting soft-deletes a meeting; its interval is free immediately.
func (s *MeetingService) DeleteMeeting(ctx context.Context, principal Principal, meetingID string) error {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	if err := s.policy.require(principal, PermissionMeetingDelete); err != nil {
		return err
	}
	if s.meetings == nil {
		return ErrMeetingNotFound
	}

	logger := s.loggerWith(ctx, "DeleteMeeting",
		"principal_id", principal.UserID,
		"meeting_id", meetingID,
	)

	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		err = mapMeetingRepoError(err)
		logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	now := s.now().UTC()
	if err := s.meetings.DeleteMeeting(ctx, meetingID, now); err != nil {
		err = mapMeetingRepoError(err)
		logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "meeting deleted")
	s.publish(ctx, logger, MeetingEvent{
		Type:       EventMeetingDeleted,
		MeetingID:  meetingID,
		RoomID:     meeting.RoomID,
		ActorID:    principal.UserID,
		OccurredAt: now,
	})
	return nil
}

// publish delivers event best effort; the operation already committed.
func (s *MeetingService) publish(ctx context.Context, logger *slog.Logger, event MeetingEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish meeting event", "event_type", event.Type, "error", err)
	}
}

// validateMeetingInput normalizes the booking request. The start is
// converted to UTC and truncated to the millisecond precision storage keeps.
func validateMeetingInput(input MeetingInput) (scheduler.Interval, []string, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Subject) == "" {
		vErr.add("subject", "subject is required")
	}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room_id is required")
	}

	interval := validateInterval(input.StartDate, input.Duration, vErr)

	inviteeIDs, inviteeErr := normalizeInvitees(input.InviteeIDs)
	vErr.merge(inviteeErr)

	return interval, inviteeIDs, vErr
}

func validateInterval(start time.Time, duration time.Duration, vErr *ValidationError) scheduler.Interval {
	if start.IsZero() {
		vErr.add("start_date", "start_date is required")
		return scheduler.Interval{}
	}
	duration = duration.Truncate(time.Millisecond)
	if duration <= 0 {
		vErr.add("duration", "duration must be positive")
		return scheduler.Interval{}
	}

	interval, err := scheduler.NewInterval(start.UTC().Truncate(time.Millisecond), duration)
	if err != nil {
		vErr.add("duration", "duration must be positive")
	}
	return interval
}

func normalizeInvitees(ids []string) ([]string, *ValidationError) {
	vErr := &ValidationError{}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			vErr.add("invitee_ids", "invitee ids must not be blank")
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out, vErr
}

func mapMeetingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrMeetingNotFound
	}
	return err
}

// mapBookingError translates failures raised inside the booking unit of work.
func mapBookingError(err error) error {
	switch {
	case errors.Is(err, ErrRoomNotAvailable), errors.Is(err, ErrRoomNotFound):
		return err
	case errors.Is(err, persistence.ErrOverlap):
		return ErrBookingConflict
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrRoomNotFound
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return fmt.Errorf("create meeting: %w", err)
}
