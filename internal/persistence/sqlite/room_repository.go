package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, name, capacity, location, details, created_at, updated_at, deleted_at`

// CreateRoom inserts a new room into the database
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := r.helper.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		room.Details,
		toMillis(room.CreatedAt),
		toMillis(room.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateRoom updates a live room. Soft-deleted rooms report ErrNotFound.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, details = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.helper.Exec(ctx, query,
		room.Name,
		room.Capacity,
		room.Location,
		room.Details,
		toMillis(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return expectAffected(result)
}

// GetRoom retrieves a live room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? AND deleted_at IS NULL`
	room, err := scanRoom(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns all live rooms ordered by name then ID
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE deleted_at IS NULL
		ORDER BY name ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return rooms, nil
}

// SoftDeleteRoom marks a live room deleted. Its meetings are kept.
func (r *RoomRepository) SoftDeleteRoom(ctx context.Context, id string, deletedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE rooms SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		toMillis(deletedAt), toMillis(deletedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)

	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&room.Details,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return persistence.Room{}, err
	}

	room.CreatedAt = fromMillis(createdAt)
	room.UpdatedAt = fromMillis(updatedAt)
	room.DeletedAt = timePtr(deletedAt)
	return room, nil
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
