// Package postgres implements the persistence repositories on PostgreSQL.
// Overlapping bookings are rejected by an exclusion constraint on
// (room_id, during) and concurrent bookings of one room serialize on a
// row lock of the room.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/example/room-booking/internal/persistence"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	_ persistence.RoomRepository    = (*RoomRepository)(nil)
	_ persistence.MeetingRepository = (*MeetingRepository)(nil)
)

// Store bundles a PostgreSQL handle with the repositories built on it.
type Store struct {
	db       *sql.DB
	rooms    *RoomRepository
	meetings *MeetingRepository
}

// Open connects to the database at dsn. Call Migrate before first use.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{
		db:       db,
		rooms:    NewRoomRepository(db),
		meetings: NewMeetingRepository(db),
	}
}

// Migrate applies every pending schema migration.
func (s *Store) Migrate(ctx context.Context) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, migrations)
	if err != nil {
		return fmt.Errorf("postgres: create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("postgres: goose up: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	return s.db.Close()
}

// Rooms returns the room repository.
func (s *Store) Rooms() *RoomRepository {
	return s.rooms
}

// Meetings returns the meeting repository.
func (s *Store) Meetings() *MeetingRepository {
	return s.meetings
}
