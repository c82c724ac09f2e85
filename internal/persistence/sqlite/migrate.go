package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies every pending schema migration.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, cp.db, migrations)
	if err != nil {
		return fmt.Errorf("sqlite: create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("sqlite: goose up: %w", err)
	}
	return nil
}
