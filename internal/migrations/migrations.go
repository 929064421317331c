package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// schemaMigrator is the subset of *migrate.Migrate used to bring the events
// table up to date.
type schemaMigrator interface {
	Version() (uint, bool, error)
	Force(version int) error
	Up() error
}

// RunMigrations brings the events table and its occurred_at indexes up to the
// embedded schema. With autoMigrate false it only reports the schema version,
// after clearing an interrupted migration if one is recorded.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newEventStoreMigrator(db)
	if err != nil {
		return err
	}
	return migrateEventStore(m, autoMigrate)
}

func newEventStoreMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded event store migrations: %w", err)
	}

	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach migrator to event store: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store migrator: %w", err)
	}
	return m, nil
}

func migrateEventStore(m schemaMigrator, autoMigrate bool) error {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		version, dirty = 0, false
	case err != nil:
		return fmt.Errorf("failed to read event store schema version: %w", err)
	}

	if dirty {
		// The interrupted step is re-run from its predecessor. Its statements
		// are CREATE ... IF NOT EXISTS and touch no rows, so stored events and
		// their event_id primary key are left as they are.
		rerunFrom := recoveryVersion(version)
		slog.Warn("[Migrations] Event store schema step was interrupted",
			"step", version,
			"rerun_from", rerunFrom)

		if err := m.Force(rerunFrom); err != nil {
			return fmt.Errorf("failed to reset interrupted event store step %d: %w", version, err)
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled, event store schema left as is",
			"version", version,
			"interrupted", dirty)
		return nil
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Event store schema is current", "version", version)
			return nil
		}
		return fmt.Errorf("failed to migrate event store schema: %w", err)
	}

	applied, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read migrated event store version: %w", err)
	}
	slog.Info("[Migrations] Event store schema migrated",
		"from_version", version,
		"to_version", applied)
	return nil
}

// recoveryVersion is the version to force before re-running the interrupted
// step. Step 1 resets to no version (-1) so the events table is created again.
func recoveryVersion(interrupted uint) int {
	if interrupted <= 1 {
		return -1
	}
	return int(interrupted) - 1
}
