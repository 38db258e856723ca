package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means a previous migration failed halfway and the schema
// must be repaired by hand before the service can start.
var ErrDirtySchema = errors.New("debt schema is dirty")

// SchemaVersion is the migration state after RunMigrations.
type SchemaVersion struct {
	Version uint
	Applied bool // false when the schema was already current
}

// RunMigrations brings the debts and debt_payments tables at dbPath up to
// the latest embedded migration.
func RunMigrations(dbPath string) (SchemaVersion, error) {
	// Own connection: closing the migrator closes its database handle.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("create sqlite driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if _, dirty, err := m.Version(); err == nil && dirty {
		return SchemaVersion{}, ErrDirtySchema
	}

	applied := true
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return SchemaVersion{}, fmt.Errorf("apply migrations: %w", err)
		}
		applied = false
	}

	version, _, err := m.Version()
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaVersion{Version: version, Applied: applied}, nil
}
