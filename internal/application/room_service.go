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

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string, deletedAt time.Time) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// RoomSchedule lists meetings so the catalog can report which rooms are in use.
type RoomSchedule interface {
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
}

// RoomServiceConfig carries optional room service settings.
type RoomServiceConfig struct {
	// MaxCapacity rejects rooms larger than this when positive.
	MaxCapacity int
	Policy      *Policy
	Logger      *slog.Logger
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	schedule    RoomSchedule
	idGenerator func() string
	now         func() time.Time
	maxCapacity int
	policy      *Policy
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, schedule RoomSchedule, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithConfig(rooms, schedule, idGenerator, now, RoomServiceConfig{})
}

// NewRoomServiceWithConfig constructs a room service with explicit settings.
func NewRoomServiceWithConfig(rooms RoomRepository, schedule RoomSchedule, idGenerator func() string, now func() time.Time, config RoomServiceConfig) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		schedule:    schedule,
		idGenerator: idGenerator,
		now:         now,
		maxCapacity: config.MaxCapacity,
		policy:      defaultPolicy(config.Policy),
		logger:      defaultLogger(config.Logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if err = s.policy.require(params.Principal, PermissionRoomManage); err != nil {
		return
	}

	vErr := s.validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Location:  strings.TrimSpace(params.Input.Location),
		Capacity:  params.Input.Capacity,
		Details:   strings.TrimSpace(params.Input.Details),
		CreatedAt: s.now().UTC(),
	}
	room.UpdatedAt = room.CreatedAt

	room, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	return
}

// UpdateRoom validates input and updates an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if err = s.policy.require(params.Principal, PermissionRoomManage); err != nil {
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	vErr := s.validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Location = strings.TrimSpace(params.Input.Location)
	updated.Capacity = params.Input.Capacity
	updated.Details = strings.TrimSpace(params.Input.Details)
	updated.UpdatedAt = s.now().UTC()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	return
}

// DeleteRoom soft-deletes a room. Existing meetings are kept but the room
// accepts no new bookings.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if err := s.policy.require(principal, PermissionRoomManage); err != nil {
		return err
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	if err := s.rooms.DeleteRoom(ctx, roomID, s.now().UTC()); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// GetRoom returns a single live room with its current occupancy.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if err = s.policy.require(principal, PermissionRoomView); err != nil {
		return
	}
	if s.rooms == nil {
		err = ErrRoomNotFound
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		s.loggerWith(ctx, "GetRoom", "room_id", roomID).
			ErrorContext(ctx, "failed to get room", "error", err, "error_kind", ErrorKind(err))
		return
	}

	rooms := []Room{room}
	if err = s.decorateOccupancy(ctx, rooms); err != nil {
		return Room{}, err
	}
	return rooms[0], nil
}

// ListRooms returns the catalog of live rooms ordered by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	if err = s.policy.require(principal, PermissionRoomView); err != nil {
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx)
	if err != nil {
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})

	err = s.decorateOccupancy(ctx, rooms)
	return
}

// decorateOccupancy marks the rooms a live meeting occupies at the current instant.
func (s *RoomService) decorateOccupancy(ctx context.Context, rooms []Room) error {
	if s.schedule == nil || len(rooms) == 0 {
		return nil
	}

	now := s.now().UTC()
	until := now.Add(time.Millisecond)
	filter := MeetingFilter{From: &now, To: &until}
	if len(rooms) == 1 {
		filter.RoomID = rooms[0].ID
	}

	meetings, err := s.schedule.ListMeetings(ctx, filter)
	if err != nil {
		return fmt.Errorf("list current meetings: %w", err)
	}

	bookings := make([]scheduler.Booking, 0, len(meetings))
	for _, meeting := range meetings {
		bookings = append(bookings, meeting.Booking())
	}

	for i := range rooms {
		if booking, ok := scheduler.CurrentBooking(rooms[i].ID, now, bookings); ok {
			rooms[i].OccupiedNow = true
			rooms[i].CurrentMeetingID = booking.MeetingID
		}
	}
	return nil
}

func (s *RoomService) validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		vErr.add("location", "location is required")
	}
	switch {
	case input.Capacity <= 0:
		vErr.add("capacity", "capacity must be positive")
	case s.maxCapacity > 0 && input.Capacity > s.maxCapacity:
		vErr.add("capacity", fmt.Sprintf("capacity must not exceed %d", s.maxCapacity))
	}

	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrRoomNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
