package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

// memoryStore is an in-memory MeetingRepository and RoomLookup whose room
// lock is a real mutex and whose inserts commit only when the unit of work
// succeeds.
type memoryStore struct {
	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
	rooms     map[string]Room
	meetings  map[string]Meeting
	invitees  map[string]Invitee
	writes    int

	insertMeetingErr error
	insertInviteeErr error
}

func newMemoryStore(rooms ...Room) *memoryStore {
	store := &memoryStore{
		roomLocks: make(map[string]*sync.Mutex),
		rooms:     make(map[string]Room),
		meetings:  make(map[string]Meeting),
		invitees:  make(map[string]Invitee),
	}
	for _, room := range rooms {
		store.rooms[room.ID] = room
	}
	return store
}

func (s *memoryStore) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	return lock
}

func (s *memoryStore) addMeeting(meeting Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[meeting.ID] = meeting
}

func (s *memoryStore) meetingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meetings)
}

func (s *memoryStore) inviteeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invitees)
}

func (s *memoryStore) WithRoomLock(ctx context.Context, roomID string, fn func(tx BookingTx) error) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	_, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return persistence.ErrNotFound
	}

	tx := &memoryTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, meeting := range tx.meetings {
		s.meetings[meeting.ID] = meeting
		s.writes++
	}
	for _, invitee := range tx.invitees {
		s.invitees[invitee.ID] = invitee
		s.writes++
	}
	return nil
}

func (s *memoryStore) GetRoom(ctx context.Context, id string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *memoryStore) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.meetings[id]
	if !ok || meeting.DeletedAt != nil {
		return Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

func (s *memoryStore) ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Meeting
	for _, meeting := range s.meetings {
		if meeting.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.RoomID != "" && meeting.RoomID != filter.RoomID {
			continue
		}
		if filter.To != nil && !meeting.StartAt.Before(*filter.To) {
			continue
		}
		if filter.From != nil && !meeting.EndAt.After(*filter.From) {
			continue
		}
		out = append(out, meeting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) UpdateApproval(ctx context.Context, meeting Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.meetings[meeting.ID]
	if !ok || existing.DeletedAt != nil {
		return persistence.ErrNotFound
	}
	existing.ApprovalStatus = meeting.ApprovalStatus
	existing.IsApproved = meeting.IsApproved
	existing.ApprovedBy = meeting.ApprovedBy
	existing.ApprovedAt = meeting.ApprovedAt
	existing.UpdatedAt = meeting.UpdatedAt
	s.meetings[meeting.ID] = existing
	s.writes++
	return nil
}

func (s *memoryStore) DeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.meetings[id]
	if !ok || meeting.DeletedAt != nil {
		return persistence.ErrNotFound
	}
	meeting.DeletedAt = &deletedAt
	s.meetings[id] = meeting
	s.writes++
	return nil
}

func (s *memoryStore) ListInvitees(ctx context.Context, meetingID string) ([]Invitee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Invitee
	for _, invitee := range s.invitees {
		if invitee.MeetingID == meetingID {
			out = append(out, invitee)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *memoryStore) GetInvitee(ctx context.Context, meetingID, userID string) (Invitee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, invitee := range s.invitees {
		if invitee.MeetingID == meetingID && invitee.UserID == userID {
			return invitee, nil
		}
	}
	return Invitee{}, persistence.ErrNotFound
}

func (s *memoryStore) UpdateInviteeStatus(ctx context.Context, inviteeID string, status scheduler.ResponseStatus, respondedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invitee, ok := s.invitees[inviteeID]
	if !ok {
		return persistence.ErrNotFound
	}
	invitee.Status = status
	invitee.ResponseAt = &respondedAt
	s.invitees[inviteeID] = invitee
	s.writes++
	return nil
}

type memoryTx struct {
	store    *memoryStore
	meetings []Meeting
	invitees []Invitee
}

func (tx *memoryTx) GetRoom(ctx context.Context, id string) (Room, error) {
	return tx.store.GetRoom(ctx, id)
}

func (tx *memoryTx) ListRoomMeetings(ctx context.Context, roomID string) ([]Meeting, error) {
	meetings, err := tx.store.ListMeetings(ctx, MeetingFilter{RoomID: roomID})
	if err != nil {
		return nil, err
	}
	return append(meetings, tx.meetings...), nil
}

func (tx *memoryTx) InsertMeeting(ctx context.Context, meeting Meeting) error {
	if tx.store.insertMeetingErr != nil {
		return tx.store.insertMeetingErr
	}
	tx.meetings = append(tx.meetings, meeting)
	return nil
}

func (tx *memoryTx) InsertInvitee(ctx context.Context, invitee Invitee) error {
	if tx.store.insertInviteeErr != nil {
		return tx.store.insertInviteeErr
	}
	tx.invitees = append(tx.invitees, invitee)
	return nil
}

type notifierStub struct {
	mu     sync.Mutex
	events []MeetingEvent
	err    error
}

func (n *notifierStub) Publish(ctx context.Context, event MeetingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *notifierStub) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, event := range n.events {
		out = append(out, event.Type)
	}
	return out
}
