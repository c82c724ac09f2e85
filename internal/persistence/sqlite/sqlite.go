// Package sqlite implements the persistence repositories on an embedded
// SQLite database through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-booking/internal/persistence"
)

// Store bundles the SQLite connection pool with the repositories built on it.
type Store struct {
	pool     *ConnectionPool
	rooms    *RoomRepository
	meetings *MeetingRepository
}

var (
	_ persistence.RoomRepository    = (*RoomRepository)(nil)
	_ persistence.MeetingRepository = (*MeetingRepository)(nil)
)

// Open connects to the database at dsn. Call Migrate before first use.
func Open(dsn string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(dsn))
}

// OpenWithConfig connects using an explicit configuration.
func OpenWithConfig(config Config) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:     pool,
		rooms:    NewRoomRepository(pool),
		meetings: NewMeetingRepository(pool),
	}, nil
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return s.pool.Migrate(ctx)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Rooms returns the room repository.
func (s *Store) Rooms() *RoomRepository {
	return s.rooms
}

// Meetings returns the meeting repository.
func (s *Store) Meetings() *MeetingRepository {
	return s.meetings
}
