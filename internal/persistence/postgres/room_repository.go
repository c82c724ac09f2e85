package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on PostgreSQL.
type RoomRepository struct {
	db *sql.DB
}

// NewRoomRepository creates a room repository over db.
func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, capacity, location, details, created_at, updated_at, deleted_at`

func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)`,
		room.ID, room.Name, room.Capacity, room.Location, room.Details,
		room.CreatedAt.UTC(), room.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE rooms
		SET name = $1, capacity = $2, location = $3, details = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL`,
		room.Name, room.Capacity, room.Location, room.Details, room.UpdatedAt.UTC(), room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1 AND deleted_at IS NULL`, id,
	))
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE deleted_at IS NULL ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, mapError(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, mapError(rows.Err())
}

func (r *RoomRepository) SoftDeleteRoom(ctx context.Context, id string, deletedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		deletedAt.UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&room.ID, &room.Name, &room.Capacity, &room.Location, &room.Details,
		&room.CreatedAt, &room.UpdatedAt, &deletedAt,
	); err != nil {
		return persistence.Room{}, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	room.UpdatedAt = room.UpdatedAt.UTC()
	room.DeletedAt = timePtr(deletedAt)
	return room, nil
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
