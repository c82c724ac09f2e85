package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

var meetingBase = time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

func clockAt(hour, minute int) time.Time {
	return meetingBase.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func sequentialIDs(prefix string) func() string {
	var counter atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, counter.Add(1))
	}
}

func newTestMeetingService(store *memoryStore, notifier Notifier) *MeetingService {
	return NewMeetingServiceWithConfig(store, store, sequentialIDs("id"), func() time.Time { return clockAt(8, 0) }, MeetingServiceConfig{
		Notifier: notifier,
	})
}

func existingMeeting(id, roomID string, start time.Time, duration time.Duration) Meeting {
	meeting := Meeting{
		ID:        id,
		Subject:   "Existing",
		RoomID:    roomID,
		CreatorID: "user-9",
		StartAt:   start,
		EndAt:     start.Add(duration),
	}
	meeting.applyApproval(scheduler.PendingApproval())
	return meeting
}

func bookingParams(start time.Time, duration time.Duration, invitees ...string) CreateMeetingParams {
	return CreateMeetingParams{
		Principal: memberPrincipal,
		Input: MeetingInput{
			Subject:    "Weekly sync",
			Content:    "agenda",
			RoomID:     "room-a",
			StartDate:  start,
			Duration:   duration,
			InviteeIDs: invitees,
		},
	}
}

func TestMeetingService_CreateMeeting(t *testing.T) {
	roomA := Room{ID: "room-a", Name: "Aspen", Capacity: 8}

	t.Run("books a free room as pending with pending invitees", func(t *testing.T) {
		store := newMemoryStore(roomA)
		notifier := &notifierStub{}
		svc := newTestMeetingService(store, notifier)

		tokyo := time.FixedZone("JST", 9*60*60)
		start := time.Date(2024, time.May, 20, 19, 0, 0, 0, tokyo)

		created, err := svc.CreateMeeting(context.Background(), bookingParams(start, time.Hour, "user-2", " user-3 ", "user-2", "user-1"))
		if err != nil {
			t.Fatalf("CreateMeeting returned error: %v", err)
		}

		meeting := created.Meeting
		if !meeting.StartAt.Equal(clockAt(10, 0)) || meeting.StartAt.Location() != time.UTC {
			t.Fatalf("expected start 10:00 UTC, got %s", meeting.StartAt)
		}
		if !meeting.EndAt.Equal(clockAt(11, 0)) {
			t.Fatalf("expected end 11:00 UTC, got %s", meeting.EndAt)
		}
		if meeting.ApprovalStatus != scheduler.ApprovalPending || meeting.IsApproved || meeting.ApprovedBy != nil || meeting.ApprovedAt != nil {
			t.Fatalf("expected pending meeting, got %+v", meeting)
		}
		if meeting.CreatorID != "user-1" || created.RoomName != "Aspen" {
			t.Fatalf("unexpected creator or room name: %+v", created)
		}

		if len(created.Invitees) != 3 {
			t.Fatalf("expected de-duplicated invitees, got %+v", created.Invitees)
		}
		for i, userID := range []string{"user-2", "user-3", "user-1"} {
			invitee := created.Invitees[i]
			if invitee.UserID != userID || invitee.Status != scheduler.ResponsePending || invitee.ResponseAt != nil {
				t.Fatalf("unexpected invitee %d: %+v", i, invitee)
			}
			if invitee.MeetingID != meeting.ID {
				t.Fatalf("expected invitee to reference %s, got %s", meeting.ID, invitee.MeetingID)
			}
		}

		if store.meetingCount() != 1 || store.inviteeCount() != 3 {
			t.Fatalf("expected one meeting and three invitees persisted, got %d/%d", store.meetingCount(), store.inviteeCount())
		}
		if got := notifier.types(); len(got) != 1 || got[0] != EventMeetingCreated {
			t.Fatalf("expected meeting.created event, got %v", got)
		}
	})

	t.Run("unknown room persists nothing", func(t *testing.T) {
		store := newMemoryStore(roomA)
		notifier := &notifierStub{}
		svc := newTestMeetingService(store, notifier)

		params := bookingParams(clockAt(10, 0), time.Hour, "user-2")
		params.Input.RoomID = "room-missing"

		_, err := svc.CreateMeeting(context.Background(), params)
		if !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
		if store.meetingCount() != 0 || store.inviteeCount() != 0 {
			t.Fatalf("expected nothing persisted")
		}
		if len(notifier.types()) != 0 {
			t.Fatalf("expected no notification")
		}
	})

	t.Run("overlapping request reports the conflicting meeting", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m-standup", "room-a", clockAt(10, 0), time.Hour))
		svc := newTestMeetingService(store, nil)

		_, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 30), time.Hour))
		if !errors.Is(err, ErrRoomNotAvailable) {
			t.Fatalf("expected ErrRoomNotAvailable, got %v", err)
		}
		var aErr *AvailabilityError
		if !errors.As(err, &aErr) || aErr.ConflictingMeetingID != "m-standup" || aErr.RoomID != "room-a" {
			t.Fatalf("expected conflict with m-standup, got %v", err)
		}
		if store.meetingCount() != 1 {
			t.Fatalf("expected no additional meeting")
		}
	})

	t.Run("back-to-back bookings are allowed", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m-standup", "room-a", clockAt(10, 0), time.Hour))
		svc := newTestMeetingService(store, nil)

		if _, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(11, 0), time.Hour)); err != nil {
			t.Fatalf("expected 11:00 booking to succeed, got %v", err)
		}
		if _, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(9, 0), time.Hour)); err != nil {
			t.Fatalf("expected 09:00 booking to succeed, got %v", err)
		}
	})

	t.Run("soft-deleted meetings never block", func(t *testing.T) {
		store := newMemoryStore(roomA)
		deleted := existingMeeting("m-cancelled", "room-a", clockAt(10, 0), time.Hour)
		deletedAt := clockAt(7, 0)
		deleted.DeletedAt = &deletedAt
		store.addMeeting(deleted)
		svc := newTestMeetingService(store, nil)

		if _, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), time.Hour)); err != nil {
			t.Fatalf("expected soft-deleted meeting to be ignored, got %v", err)
		}
	})

	t.Run("storage overlap maps to ErrBookingConflict", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.insertMeetingErr = fmt.Errorf("insert: %w", persistence.ErrOverlap)
		svc := newTestMeetingService(store, nil)

		_, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), time.Hour))
		if !errors.Is(err, ErrBookingConflict) || !errors.Is(err, ErrRoomNotAvailable) {
			t.Fatalf("expected ErrBookingConflict, got %v", err)
		}
		if ErrorKind(err) != "conflict" {
			t.Fatalf("expected conflict kind, got %s", ErrorKind(err))
		}
	})

	t.Run("invitee failure rolls back the meeting", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.insertInviteeErr = errors.New("disk full")
		svc := newTestMeetingService(store, nil)

		_, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), time.Hour, "user-2"))
		if err == nil {
			t.Fatalf("expected error")
		}
		if store.meetingCount() != 0 || store.inviteeCount() != 0 {
			t.Fatalf("expected rollback, got %d meetings and %d invitees", store.meetingCount(), store.inviteeCount())
		}
	})

	t.Run("validates input", func(t *testing.T) {
		svc := newTestMeetingService(newMemoryStore(roomA), nil)

		_, err := svc.CreateMeeting(context.Background(), CreateMeetingParams{
			Principal: memberPrincipal,
			Input:     MeetingInput{Subject: " ", Duration: 0, InviteeIDs: []string{""}},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"subject", "room_id", "start_date", "invitee_ids"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}

		_, err = svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), -time.Minute))
		if !errors.As(err, &vErr) || vErr.FieldErrors["duration"] == "" {
			t.Fatalf("expected duration validation error, got %v", err)
		}
	})

	t.Run("requires the meeting:create permission", func(t *testing.T) {
		store := newMemoryStore(roomA)
		svc := newTestMeetingService(store, nil)

		params := bookingParams(clockAt(10, 0), time.Hour)
		params.Principal = Principal{UserID: "guest", Roles: []string{"guest"}}
		if _, err := svc.CreateMeeting(context.Background(), params); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("notification failures do not fail the booking", func(t *testing.T) {
		store := newMemoryStore(roomA)
		svc := newTestMeetingService(store, &notifierStub{err: errors.New("redis down")})

		if _, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), time.Hour)); err != nil {
			t.Fatalf("expected success despite notifier failure, got %v", err)
		}
		if store.meetingCount() != 1 {
			t.Fatalf("expected meeting to be stored")
		}
	})
}

func TestMeetingService_CreateMeeting_Concurrent(t *testing.T) {
	store := newMemoryStore(Room{ID: "room-a", Name: "Aspen"})
	svc := newTestMeetingService(store, nil)

	const attempts = 16
	var (
		wg          sync.WaitGroup
		successes   atomic.Int32
		unavailable atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := clockAt(10, 0).Add(time.Duration(i) * time.Minute)
			_, err := svc.CreateMeeting(context.Background(), bookingParams(start, time.Hour))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrRoomNotAvailable):
				unavailable.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly one booking to succeed, got %d", successes.Load())
	}
	if unavailable.Load() != attempts-1 {
		t.Fatalf("expected %d losers, got %d", attempts-1, unavailable.Load())
	}
	if store.meetingCount() != 1 {
		t.Fatalf("expected one stored meeting, got %d", store.meetingCount())
	}
}

func TestMeetingService_Review(t *testing.T) {
	roomA := Room{ID: "room-a", Name: "Aspen"}

	t.Run("approving an unknown meeting writes nothing", func(t *testing.T) {
		store := newMemoryStore(roomA)
		svc := newTestMeetingService(store, nil)

		_, err := svc.ApproveMeeting(context.Background(), adminPrincipal, "missing")
		if !errors.Is(err, ErrMeetingNotFound) {
			t.Fatalf("expected ErrMeetingNotFound, got %v", err)
		}
		if store.writes != 0 {
			t.Fatalf("expected no writes, got %d", store.writes)
		}
	})

	t.Run("approve then reject clears the approval", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m1", "room-a", clockAt(10, 0), time.Hour))
		notifier := &notifierStub{}
		svc := newTestMeetingService(store, notifier)

		approved, err := svc.ApproveMeeting(context.Background(), adminPrincipal, "m1")
		if err != nil {
			t.Fatalf("ApproveMeeting returned error: %v", err)
		}
		if !approved.IsApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != "admin-1" {
			t.Fatalf("unexpected approval %+v", approved)
		}
		if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(clockAt(8, 0)) {
			t.Fatalf("expected approval time from clock, got %v", approved.ApprovedAt)
		}

		if _, err := svc.RejectMeeting(context.Background(), adminPrincipal, "m1"); err != nil {
			t.Fatalf("RejectMeeting returned error: %v", err)
		}

		stored, err := store.GetMeeting(context.Background(), "m1")
		if err != nil {
			t.Fatalf("GetMeeting returned error: %v", err)
		}
		if stored.IsApproved || stored.ApprovedBy != nil || stored.ApprovedAt != nil {
			t.Fatalf("expected legacy fields cleared, got %+v", stored)
		}
		if stored.ApprovalStatus != scheduler.ApprovalRejected {
			t.Fatalf("expected rejected status, got %s", stored.ApprovalStatus)
		}

		got := notifier.types()
		if len(got) != 2 || got[0] != EventMeetingApproved || got[1] != EventMeetingRejected {
			t.Fatalf("unexpected events %v", got)
		}
	})

	t.Run("re-approval is a no-op", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m1", "room-a", clockAt(10, 0), time.Hour))
		svc := newTestMeetingService(store, nil)

		if _, err := svc.ApproveMeeting(context.Background(), adminPrincipal, "m1"); err != nil {
			t.Fatalf("ApproveMeeting returned error: %v", err)
		}
		writes := store.writes

		other := Principal{UserID: "admin-2", Roles: []string{RoleAdmin}}
		again, err := svc.ApproveMeeting(context.Background(), other, "m1")
		if err != nil {
			t.Fatalf("second ApproveMeeting returned error: %v", err)
		}
		if *again.ApprovedBy != "admin-1" {
			t.Fatalf("expected first approver to be kept, got %s", *again.ApprovedBy)
		}
		if store.writes != writes {
			t.Fatalf("expected no additional write")
		}
	})

	t.Run("members cannot review", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m1", "room-a", clockAt(10, 0), time.Hour))
		svc := newTestMeetingService(store, nil)

		if _, err := svc.ApproveMeeting(context.Background(), memberPrincipal, "m1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := svc.RejectMeeting(context.Background(), memberPrincipal, "m1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("deleted meetings cannot be reviewed", func(t *testing.T) {
		store := newMemoryStore(roomA)
		store.addMeeting(existingMeeting("m1", "room-a", clockAt(10, 0), time.Hour))
		svc := newTestMeetingService(store, nil)

		if err := svc.DeleteMeeting(context.Background(), adminPrincipal, "m1"); err != nil {
			t.Fatalf("DeleteMeeting returned error: %v", err)
		}
		if _, err := svc.RejectMeeting(context.Background(), adminPrincipal, "m1"); !errors.Is(err, ErrMeetingNotFound) {
			t.Fatalf("expected ErrMeetingNotFound, got %v", err)
		}
	})
}

func TestMeetingService_RespondToInvitation(t *testing.T) {
	setup := func(t *testing.T) (*MeetingService, *memoryStore, string) {
		t.Helper()
		store := newMemoryStore(Room{ID: "room-a", Name: "Aspen"})
		svc := newTestMeetingService(store, nil)
		created, err := svc.CreateMeeting(context.Background(), bookingParams(clockAt(10, 0), time.Hour, "user-2"))
		if err != nil {
			t.Fatalf("CreateMeeting returned error: %v", err)
		}
		return svc, store, created.Meeting.ID
	}
	invitee := Principal{UserID: "user-2", Roles: []string{RoleMember}}

	t.Run("invitee answers for themselves", func(t *testing.T) {
		svc, store, meetingID := setup(t)

		answered, err := svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: invitee, MeetingID: meetingID, UserID: "user-2", Status: scheduler.ResponseRejected,
		})
		if err != nil {
			t.Fatalf("RespondToInvitation returned error: %v", err)
		}
		if answered.Status != scheduler.ResponseRejected || answered.ResponseAt == nil || !answered.ResponseAt.Equal(clockAt(8, 0)) {
			t.Fatalf("unexpected invitee %+v", answered)
		}

		meeting, _ := store.GetMeeting(context.Background(), meetingID)
		if meeting.ApprovalStatus != scheduler.ApprovalPending {
			t.Fatalf("invitee answers must not change meeting approval, got %s", meeting.ApprovalStatus)
		}
	})

	t.Run("answering for someone else needs respond_any", func(t *testing.T) {
		svc, _, meetingID := setup(t)

		_, err := svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: memberPrincipal, MeetingID: meetingID, UserID: "user-2", Status: scheduler.ResponseApproved,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: adminPrincipal, MeetingID: meetingID, UserID: "user-2", Status: scheduler.ResponseApproved,
		}); err != nil {
			t.Fatalf("expected admin to answer on behalf, got %v", err)
		}
	})

	t.Run("pending is not an answer", func(t *testing.T) {
		svc, _, meetingID := setup(t)

		_, err := svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: invitee, MeetingID: meetingID, UserID: "user-2", Status: scheduler.ResponsePending,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("uninvited users and unknown meetings", func(t *testing.T) {
		svc, _, meetingID := setup(t)
		stranger := Principal{UserID: "user-7", Roles: []string{RoleMember}}

		_, err := svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: stranger, MeetingID: meetingID, UserID: "user-7", Status: scheduler.ResponseApproved,
		})
		if !errors.Is(err, ErrInvitationNotFound) {
			t.Fatalf("expected ErrInvitationNotFound, got %v", err)
		}

		_, err = svc.RespondToInvitation(context.Background(), RespondParams{
			Principal: invitee, MeetingID: "missing", UserID: "user-2", Status: scheduler.ResponseApproved,
		})
		if !errors.Is(err, ErrMeetingNotFound) {
			t.Fatalf("expected ErrMeetingNotFound, got %v", err)
		}
	})

	t.Run("repeating the same answer writes nothing", func(t *testing.T) {
		svc, store, meetingID := setup(t)
		params := RespondParams{Principal: invitee, MeetingID: meetingID, UserID: "user-2", Status: scheduler.ResponseApproved}

		if _, err := svc.RespondToInvitation(context.Background(), params); err != nil {
			t.Fatalf("RespondToInvitation returned error: %v", err)
		}
		writes := store.writes
		if _, err := svc.RespondToInvitation(context.Background(), params); err != nil {
			t.Fatalf("RespondToInvitation returned error: %v", err)
		}
		if store.writes != writes {
			t.Fatalf("expected no additional write")
		}
	})
}

func TestMeetingService_CheckRoomAvailability(t *testing.T) {
	store := newMemoryStore(Room{ID: "room-a", Name: "Aspen"})
	store.addMeeting(existingMeeting("m-standup", "room-a", clockAt(10, 0), time.Hour))
	svc := newTestMeetingService(store, nil)
	ctx := context.Background()

	busy, err := svc.CheckRoomAvailability(ctx, memberPrincipal, "room-a", clockAt(10, 30), time.Hour)
	if err != nil {
		t.Fatalf("CheckRoomAvailability returned error: %v", err)
	}
	if busy.Available() {
		t.Fatalf("expected 10:30 to conflict")
	}
	if conflict, _ := busy.FirstConflict(); conflict.MeetingID != "m-standup" {
		t.Fatalf("expected m-standup conflict, got %+v", conflict)
	}

	free, err := svc.CheckRoomAvailability(ctx, memberPrincipal, "room-a", clockAt(11, 0), time.Hour)
	if err != nil || !free.Available() {
		t.Fatalf("expected 11:00 to be free, got %+v err=%v", free, err)
	}

	if _, err := svc.CheckRoomAvailability(ctx, memberPrincipal, "missing", clockAt(11, 0), time.Hour); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("availability checks must not write")
	}
}

func TestMeetingService_DeleteAndList(t *testing.T) {
	store := newMemoryStore(Room{ID: "room-a", Name: "Aspen"})
	store.addMeeting(existingMeeting("m-late", "room-a", clockAt(14, 0), time.Hour))
	store.addMeeting(existingMeeting("m-early", "room-a", clockAt(10, 0), time.Hour))
	notifier := &notifierStub{}
	svc := newTestMeetingService(store, notifier)
	ctx := context.Background()

	listed, err := svc.ListMeetings(ctx, memberPrincipal, MeetingFilter{RoomID: "room-a"})
	if err != nil {
		t.Fatalf("ListMeetings returned error: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "m-early" || listed[1].ID != "m-late" {
		t.Fatalf("expected meetings ordered by start, got %+v", listed)
	}

	if err := svc.DeleteMeeting(ctx, memberPrincipal, "m-early"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected members to be denied, got %v", err)
	}
	if err := svc.DeleteMeeting(ctx, adminPrincipal, "m-early"); err != nil {
		t.Fatalf("DeleteMeeting returned error: %v", err)
	}
	if err := svc.DeleteMeeting(ctx, adminPrincipal, "m-early"); !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound on second delete, got %v", err)
	}

	if _, err := svc.CreateMeeting(ctx, bookingParams(clockAt(10, 0), time.Hour)); err != nil {
		t.Fatalf("expected deleted interval to be free, got %v", err)
	}

	if _, err := svc.ListMeetings(ctx, memberPrincipal, MeetingFilter{IncludeDeleted: true}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected members to be denied deleted meetings, got %v", err)
	}
	all, err := svc.ListMeetings(ctx, adminPrincipal, MeetingFilter{IncludeDeleted: true})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected three meetings including deleted, got %d err=%v", len(all), err)
	}

	from, to := clockAt(12, 0), clockAt(11, 0)
	var vErr *ValidationError
	if _, err := svc.ListMeetings(ctx, memberPrincipal, MeetingFilter{From: &from, To: &to}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for inverted window, got %v", err)
	}

	types := notifier.types()
	if len(types) != 2 || types[0] != EventMeetingDeleted || types[1] != EventMeetingCreated {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestMeetingService_GetMeeting(t *testing.T) {
	store := newMemoryStore(Room{ID: "room-a", Name: "Aspen"})
	svc := newTestMeetingService(store, nil)
	ctx := context.Background()

	created, err := svc.CreateMeeting(ctx, bookingParams(clockAt(10, 0), time.Hour, "user-3", "user-2"))
	if err != nil {
		t.Fatalf("CreateMeeting returned error: %v", err)
	}

	details, err := svc.GetMeeting(ctx, memberPrincipal, created.Meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting returned error: %v", err)
	}
	if details.RoomName != "Aspen" || len(details.Invitees) != 2 {
		t.Fatalf("unexpected details %+v", details)
	}

	if _, err := svc.GetMeeting(ctx, memberPrincipal, "missing"); !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}
