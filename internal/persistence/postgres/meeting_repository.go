package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository on PostgreSQL.
type MeetingRepository struct {
	db *sql.DB
}

// NewMeetingRepository creates a meeting repository over db.
func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, subject, content, room_id, creator_id, start_at, end_at,
	approval_status, is_approved, approved_by, approved_at, created_at, updated_at, deleted_at`

const meetingUserColumns = `id, meeting_id, user_id, status, response_at, created_at`

// WithRoomLock runs fn in a transaction holding a row lock on the room, so
// bookings of the same room serialize while other rooms proceed.
func (r *MeetingRepository) WithRoomLock(ctx context.Context, roomID string, fn func(tx persistence.BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM rooms WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, roomID,
	).Scan(&locked)
	if err != nil {
		return mapError(err)
	}

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	meeting, err := scanMeeting(r.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = $1 AND deleted_at IS NULL`, id,
	))
	if err != nil {
		return persistence.Meeting{}, mapError(err)
	}
	return meeting, nil
}

func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.RoomID != "" {
		add("room_id = $%d", filter.RoomID)
	}
	if filter.StartsBefore != nil {
		add("start_at < $%d", filter.StartsBefore.UTC())
	}
	if filter.EndsAfter != nil {
		add("end_at > $%d", filter.EndsAfter.UTC())
	}
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return collectMeetings(rows)
}

func (r *MeetingRepository) UpdateMeetingApproval(ctx context.Context, meeting persistence.Meeting) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings
		SET approval_status = $1, is_approved = $2, approved_by = $3, approved_at = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL`,
		meeting.ApprovalStatus, meeting.IsApproved, nullString(meeting.ApprovedBy),
		nullTime(meeting.ApprovedAt), meeting.UpdatedAt.UTC(), meeting.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func (r *MeetingRepository) SoftDeleteMeeting(ctx context.Context, id string, deletedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		deletedAt.UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func (r *MeetingRepository) ListMeetingUsers(ctx context.Context, meetingID string) ([]persistence.MeetingUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+meetingUserColumns+` FROM meeting_users WHERE meeting_id = $1 ORDER BY created_at ASC, user_id ASC`,
		meetingID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var invitees []persistence.MeetingUser
	for rows.Next() {
		invitee, err := scanMeetingUser(rows)
		if err != nil {
			return nil, mapError(err)
		}
		invitees = append(invitees, invitee)
	}
	return invitees, mapError(rows.Err())
}

func (r *MeetingRepository) GetMeetingUser(ctx context.Context, meetingID, userID string) (persistence.MeetingUser, error) {
	invitee, err := scanMeetingUser(r.db.QueryRowContext(ctx,
		`SELECT `+meetingUserColumns+` FROM meeting_users WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, userID,
	))
	if err != nil {
		return persistence.MeetingUser{}, mapError(err)
	}
	return invitee, nil
}

func (r *MeetingRepository) UpdateMeetingUserStatus(ctx context.Context, id string, status int, responseAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meeting_users SET status = $1, response_at = $2 WHERE id = $3`,
		status, responseAt.UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

type bookingTx struct {
	tx *sql.Tx
}

func (b *bookingTx) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	room, err := scanRoom(b.tx.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1 AND deleted_at IS NULL`, id,
	))
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

func (b *bookingTx) ListRoomMeetings(ctx context.Context, roomID string) ([]persistence.Meeting, error) {
	rows, err := b.tx.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE room_id = $1 AND deleted_at IS NULL ORDER BY start_at ASC, id ASC`,
		roomID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return collectMeetings(rows)
}

func (b *bookingTx) InsertMeeting(ctx context.Context, meeting persistence.Meeting) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO meetings (`+meetingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL)`,
		meeting.ID, meeting.Subject, meeting.Content, meeting.RoomID, meeting.CreatorID,
		meeting.StartAt.UTC(), meeting.EndAt.UTC(),
		meeting.ApprovalStatus, meeting.IsApproved, nullString(meeting.ApprovedBy), nullTime(meeting.ApprovedAt),
		meeting.CreatedAt.UTC(), meeting.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (b *bookingTx) InsertMeetingUser(ctx context.Context, invitee persistence.MeetingUser) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO meeting_users (`+meetingUserColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		invitee.ID, invitee.MeetingID, invitee.UserID, invitee.Status,
		nullTime(invitee.ResponseAt), invitee.CreatedAt.UTC(),
	)
	return mapError(err)
}

func collectMeetings(rows *sql.Rows) ([]persistence.Meeting, error) {
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, mapError(err)
		}
		meetings = append(meetings, meeting)
	}
	return meetings, mapError(rows.Err())
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting               persistence.Meeting
		approvedBy            sql.NullString
		approvedAt, deletedAt sql.NullTime
	)
	if err := row.Scan(
		&meeting.ID, &meeting.Subject, &meeting.Content, &meeting.RoomID, &meeting.CreatorID,
		&meeting.StartAt, &meeting.EndAt,
		&meeting.ApprovalStatus, &meeting.IsApproved, &approvedBy, &approvedAt,
		&meeting.CreatedAt, &meeting.UpdatedAt, &deletedAt,
	); err != nil {
		return persistence.Meeting{}, err
	}
	meeting.StartAt = meeting.StartAt.UTC()
	meeting.EndAt = meeting.EndAt.UTC()
	meeting.CreatedAt = meeting.CreatedAt.UTC()
	meeting.UpdatedAt = meeting.UpdatedAt.UTC()
	if approvedBy.Valid {
		meeting.ApprovedBy = &approvedBy.String
	}
	meeting.ApprovedAt = timePtr(approvedAt)
	meeting.DeletedAt = timePtr(deletedAt)
	return meeting, nil
}

func scanMeetingUser(row rowScanner) (persistence.MeetingUser, error) {
	var (
		invitee    persistence.MeetingUser
		responseAt sql.NullTime
	)
	if err := row.Scan(
		&invitee.ID, &invitee.MeetingID, &invitee.UserID, &invitee.Status, &responseAt, &invitee.CreatedAt,
	); err != nil {
		return persistence.MeetingUser{}, err
	}
	invitee.CreatedAt = invitee.CreatedAt.UTC()
	invitee.ResponseAt = timePtr(responseAt)
	return invitee, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
