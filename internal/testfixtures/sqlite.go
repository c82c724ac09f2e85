package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated SQLite store in a temporary directory
// for integration-style tests.
type SQLiteHarness struct {
	Store    *sqlite.Store
	Rooms    persistence.RoomRepository
	Meetings persistence.MeetingRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a file-backed database. Close is
// registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "booking.db")
	store, err := sqlite.Open("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:    store,
		Rooms:    store.Rooms(),
		Meetings: store.Meetings(),
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedRooms inserts rooms directly into storage.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Rooms.CreateRoom(context.Background(), room.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %s: %v", room.ID, err)
		}
	}
}
