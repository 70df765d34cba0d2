package postgres

import (
	"database/sql"
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every bundled, ordered migration idempotently; the
// migration tool records applied versions in its own history table
// (spec.md §6, "Migrations bundled into the binary; the migration tool
// records applied versions in a standard migration-history table").
func runMigrations(db *sql.DB) error {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}
	_, err := migrate.Exec(db, "postgres", src, migrate.Up)
	return err
}
