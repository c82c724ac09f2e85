package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewMeetingRepository creates a new SQLite meeting repository
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const meetingColumns = `id, subject, content, room_id, creator_id, start_at, end_at,
	approval_status, is_approved, approved_by, approved_at, created_at, updated_at, deleted_at`

const meetingUserColumns = `id, meeting_id, user_id, status, response_at, created_at`

// WithRoomLock runs fn inside a BEGIN IMMEDIATE transaction. SQLite admits
// a single writer, so holding the write lock serializes every booking, not
// only those for roomID. Busy errors are retried with backoff.
func (r *MeetingRepository) WithRoomLock(ctx context.Context, roomID string, fn func(tx persistence.BookingTx) error) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var exists int
			err := r.helper.QueryRowTx(ctx, tx,
				`SELECT 1 FROM rooms WHERE id = ? AND deleted_at IS NULL`, roomID,
			).Scan(&exists)
			if err != nil {
				return r.mapper.MapError(err)
			}
			return fn(&bookingTx{tx: tx, helper: r.helper, mapper: r.mapper})
		})
	})
}

// GetMeeting retrieves a live meeting by ID.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ? AND deleted_at IS NULL`
	meeting, err := scanMeeting(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return meeting, nil
}

// ListMeetings returns meetings matching filter ordered by start time.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "start_at < ?")
		args = append(args, toMillis(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		clauses = append(clauses, "end_at > ?")
		args = append(args, toMillis(*filter.EndsAfter))
	}
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectMeetings(rows, r.mapper)
}

// UpdateMeetingApproval persists the approval fields of a live meeting.
func (r *MeetingRepository) UpdateMeetingApproval(ctx context.Context, meeting persistence.Meeting) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE meetings
		SET approval_status = ?, is_approved = ?, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		meeting.ApprovalStatus,
		boolToInt(meeting.IsApproved),
		nullString(meeting.ApprovedBy),
		nullMillis(meeting.ApprovedAt),
		toMillis(meeting.UpdatedAt),
		meeting.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// SoftDeleteMeeting marks a live meeting deleted, releasing its room interval.
func (r *MeetingRepository) SoftDeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE meetings SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		toMillis(deletedAt), toMillis(deletedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// ListMeetingUsers returns the invitees of a meeting in invitation order.
func (r *MeetingRepository) ListMeetingUsers(ctx context.Context, meetingID string) ([]persistence.MeetingUser, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+meetingUserColumns+` FROM meeting_users WHERE meeting_id = ? ORDER BY created_at ASC, user_id ASC`,
		meetingID,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var invitees []persistence.MeetingUser
	for rows.Next() {
		invitee, err := scanMeetingUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		invitees = append(invitees, invitee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return invitees, nil
}

// GetMeetingUser returns userID's invitation to meetingID.
func (r *MeetingRepository) GetMeetingUser(ctx context.Context, meetingID, userID string) (persistence.MeetingUser, error) {
	invitee, err := scanMeetingUser(r.helper.QueryRow(ctx,
		`SELECT `+meetingUserColumns+` FROM meeting_users WHERE meeting_id = ? AND user_id = ?`,
		meetingID, userID,
	))
	if err != nil {
		return persistence.MeetingUser{}, r.mapper.MapError(err)
	}
	return invitee, nil
}

// UpdateMeetingUserStatus records an invitee's response.
func (r *MeetingRepository) UpdateMeetingUserStatus(ctx context.Context, id string, status int, responseAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE meeting_users SET status = ?, response_at = ? WHERE id = ?`,
		status, toMillis(responseAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// bookingTx is the persistence.BookingTx handed to WithRoomLock callbacks.
type bookingTx struct {
	tx     *sql.Tx
	helper *QueryHelper
	mapper *ErrorMapper
}

func (b *bookingTx) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	room, err := scanRoom(b.helper.QueryRowTx(ctx, b.tx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ? AND deleted_at IS NULL`, id,
	))
	if err != nil {
		return persistence.Room{}, b.mapper.MapError(err)
	}
	return room, nil
}

func (b *bookingTx) ListRoomMeetings(ctx context.Context, roomID string) ([]persistence.Meeting, error) {
	rows, err := b.helper.QueryTx(ctx, b.tx,
		`SELECT `+meetingColumns+` FROM meetings WHERE room_id = ? AND deleted_at IS NULL ORDER BY start_at ASC, id ASC`,
		roomID,
	)
	if err != nil {
		return nil, b.mapper.MapError(err)
	}
	return collectMeetings(rows, b.mapper)
}

func (b *bookingTx) InsertMeeting(ctx context.Context, meeting persistence.Meeting) error {
	_, err := b.helper.ExecTx(ctx, b.tx, `
		INSERT INTO meetings (`+meetingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		meeting.ID,
		meeting.Subject,
		meeting.Content,
		meeting.RoomID,
		meeting.CreatorID,
		toMillis(meeting.StartAt),
		toMillis(meeting.EndAt),
		meeting.ApprovalStatus,
		boolToInt(meeting.IsApproved),
		nullString(meeting.ApprovedBy),
		nullMillis(meeting.ApprovedAt),
		toMillis(meeting.CreatedAt),
		toMillis(meeting.UpdatedAt),
	)
	return b.mapper.MapError(err)
}

func (b *bookingTx) InsertMeetingUser(ctx context.Context, invitee persistence.MeetingUser) error {
	_, err := b.helper.ExecTx(ctx, b.tx, `
		INSERT INTO meeting_users (`+meetingUserColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		invitee.ID,
		invitee.MeetingID,
		invitee.UserID,
		invitee.Status,
		nullMillis(invitee.ResponseAt),
		toMillis(invitee.CreatedAt),
	)
	return b.mapper.MapError(err)
}

func collectMeetings(rows *sql.Rows, mapper *ErrorMapper) ([]persistence.Meeting, error) {
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, mapper.MapError(err)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, mapper.MapError(err)
	}
	return meetings, nil
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting                              persistence.Meeting
		startAt, endAt, createdAt, updatedAt int64
		isApproved                           int
		approvedBy                           sql.NullString
		approvedAt, deletedAt                sql.NullInt64
	)

	if err := row.Scan(
		&meeting.ID,
		&meeting.Subject,
		&meeting.Content,
		&meeting.RoomID,
		&meeting.CreatorID,
		&startAt,
		&endAt,
		&meeting.ApprovalStatus,
		&isApproved,
		&approvedBy,
		&approvedAt,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return persistence.Meeting{}, err
	}

	meeting.StartAt = fromMillis(startAt)
	meeting.EndAt = fromMillis(endAt)
	meeting.IsApproved = isApproved == 1
	meeting.ApprovedBy = stringPtr(approvedBy)
	meeting.ApprovedAt = timePtr(approvedAt)
	meeting.CreatedAt = fromMillis(createdAt)
	meeting.UpdatedAt = fromMillis(updatedAt)
	meeting.DeletedAt = timePtr(deletedAt)
	return meeting, nil
}

func scanMeetingUser(row rowScanner) (persistence.MeetingUser, error) {
	var (
		invitee    persistence.MeetingUser
		responseAt sql.NullInt64
		createdAt  int64
	)

	if err := row.Scan(
		&invitee.ID,
		&invitee.MeetingID,
		&invitee.UserID,
		&invitee.Status,
		&responseAt,
		&createdAt,
	); err != nil {
		return persistence.MeetingUser{}, err
	}

	invitee.ResponseAt = timePtr(responseAt)
	invitee.CreatedAt = fromMillis(createdAt)
	return invitee, nil
}
