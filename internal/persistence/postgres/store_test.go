package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/room-booking/internal/persistence"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceTime = time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db), mock
}

func meetingRow(id, roomID string, start time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "subject", "content", "room_id", "creator_id", "start_at", "end_at",
		"approval_status", "is_approved", "approved_by", "approved_at", "created_at", "updated_at", "deleted_at",
	}).AddRow(
		id, "Sync", "agenda", roomID, "user-1", start, start.Add(time.Hour),
		"pending", false, nil, nil, referenceTime, referenceTime, nil,
	)
}

func sampleMeeting() persistence.Meeting {
	return persistence.Meeting{
		ID:             "m1",
		Subject:        "Sync",
		RoomID:         "room-a",
		CreatorID:      "user-1",
		StartAt:        referenceTime.Add(time.Hour),
		EndAt:          referenceTime.Add(2 * time.Hour),
		ApprovalStatus: "pending",
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
}

const lockQuery = `SELECT id FROM rooms WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

func TestWithRoomLock_Commits(t *testing.T) {
	store, mock := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs("room-a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-a"))
	mock.ExpectQuery(`SELECT .* FROM meetings WHERE room_id = \$1 AND deleted_at IS NULL`).
		WithArgs("room-a").
		WillReturnRows(meetingRow("m0", "room-a", referenceTime))
	mock.ExpectExec(`INSERT INTO meetings`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO meeting_users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Meetings().WithRoomLock(ctx, "room-a", func(tx persistence.BookingTx) error {
		existing, err := tx.ListRoomMeetings(ctx, "room-a")
		if err != nil {
			return err
		}
		assert.Len(t, existing, 1)
		assert.Equal(t, "m0", existing[0].ID)
		assert.Nil(t, existing[0].ApprovedBy)

		if err := tx.InsertMeeting(ctx, sampleMeeting()); err != nil {
			return err
		}
		return tx.InsertMeetingUser(ctx, persistence.MeetingUser{
			ID: "mu1", MeetingID: "m1", UserID: "user-2", CreatedAt: referenceTime,
		})
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRoomLock_UnknownRoom(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	err := store.Meetings().WithRoomLock(context.Background(), "missing", func(persistence.BookingTx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRoomLock_ExclusionViolation(t *testing.T) {
	store, mock := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs("room-a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-a"))
	mock.ExpectExec(`INSERT INTO meetings`).
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "meetings_no_overlap"})
	mock.ExpectRollback()

	err := store.Meetings().WithRoomLock(ctx, "room-a", func(tx persistence.BookingTx) error {
		return tx.InsertMeeting(ctx, sampleMeeting())
	})

	assert.ErrorIs(t, err, persistence.ErrOverlap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoom_Duplicate(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO rooms`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "rooms_name_live_idx"})

	err := store.Rooms().CreateRoom(context.Background(), persistence.Room{
		ID: "room-a", Name: "Aspen", Capacity: 6, CreatedAt: referenceTime, UpdatedAt: referenceTime,
	})

	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoom(t *testing.T) {
	store, mock := setupMockStore(t)

	deletedAt := referenceTime.Add(time.Hour)
	mock.ExpectQuery(`SELECT .* FROM rooms WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs("room-a").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "capacity", "location", "details", "created_at", "updated_at", "deleted_at",
		}).AddRow("room-a", "Aspen", 6, "3F", "", referenceTime, referenceTime, deletedAt))
	mock.ExpectQuery(`SELECT .* FROM rooms`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	room, err := store.Rooms().GetRoom(context.Background(), "room-a")
	require.NoError(t, err)
	assert.Equal(t, "Aspen", room.Name)
	assert.Equal(t, 6, room.Capacity)
	require.NotNil(t, room.DeletedAt)
	assert.True(t, room.DeletedAt.Equal(deletedAt))

	_, err = store.Rooms().GetRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMeetings_BuildsFilter(t *testing.T) {
	store, mock := setupMockStore(t)

	from := referenceTime
	to := referenceTime.Add(8 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE room_id = $1 AND start_at < $2 AND end_at > $3 AND deleted_at IS NULL ORDER BY start_at ASC, id ASC`)).
		WithArgs("room-a", to, from).
		WillReturnRows(meetingRow("m1", "room-a", referenceTime.Add(time.Hour)))

	meetings, err := store.Meetings().ListMeetings(context.Background(), persistence.MeetingFilter{
		RoomID:       "room-a",
		StartsBefore: &to,
		EndsAfter:    &from,
	})

	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "m1", meetings[0].ID)
	assert.Equal(t, time.Hour, meetings[0].EndAt.Sub(meetings[0].StartAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteMeeting_NotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`UPDATE meetings SET deleted_at`).
		WithArgs(referenceTime, "m1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Meetings().SoftDeleteMeeting(context.Background(), "m1", referenceTime)

	assert.ErrorIs(t, err, persistence.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeetingUserStatus_CheckViolation(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`UPDATE meeting_users SET status`).
		WithArgs(9, referenceTime, "mu1").
		WillReturnError(&pq.Error{Code: "23514", Message: "violates check constraint"})

	err := store.Meetings().UpdateMeetingUserStatus(context.Background(), "mu1", 9, referenceTime)

	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	require.NoError(t, mock.ExpectationsWereMet())
}
