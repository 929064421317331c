package migrations

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesAreEmbedded(t *testing.T) {
	src, err := iofs.New(MigrationFiles, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	up, identifier, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	require.Equal(t, "create_events_table", identifier)

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}

// fakeMigrator records the calls made against the schema version table.
type fakeMigrator struct {
	version  uint
	dirty    bool
	nilState bool
	upErr    error
	upTo     uint

	forced []int
	ups    int
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	if f.nilState {
		return 0, false, migrate.ErrNilVersion
	}
	return f.version, f.dirty, nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	f.dirty = false
	if v < 0 {
		f.nilState = true
		return nil
	}
	f.version = uint(v)
	return nil
}

func (f *fakeMigrator) Up() error {
	f.ups++
	if f.upErr != nil {
		return f.upErr
	}
	f.nilState = false
	f.version = f.upTo
	return nil
}

func TestMigrateEventStore(t *testing.T) {
	tests := []struct {
		name        string
		m           *fakeMigrator
		autoMigrate bool
		wantErr     string
		wantForced  []int
		wantUps     int
	}{
		{
			name:        "fresh database is migrated",
			m:           &fakeMigrator{nilState: true, upTo: 1},
			autoMigrate: true,
			wantUps:     1,
		},
		{
			name:        "current schema is a no-op",
			m:           &fakeMigrator{version: 1, upErr: migrate.ErrNoChange},
			autoMigrate: true,
			wantUps:     1,
		},
		{
			name:        "interrupted first step is re-run from no version",
			m:           &fakeMigrator{version: 1, dirty: true, upTo: 1},
			autoMigrate: true,
			wantForced:  []int{-1},
			wantUps:     1,
		},
		{
			name:        "interrupted later step is re-run from its predecessor",
			m:           &fakeMigrator{version: 3, dirty: true, upTo: 3},
			autoMigrate: true,
			wantForced:  []int{2},
			wantUps:     1,
		},
		{
			name:       "auto-migration disabled still clears an interrupted step",
			m:          &fakeMigrator{version: 2, dirty: true},
			wantForced: []int{1},
		},
		{
			name:        "migration failure is reported",
			m:           &fakeMigrator{version: 1, upErr: errors.New("permission denied for schema public")},
			autoMigrate: true,
			wantErr:     "failed to migrate event store schema",
			wantUps:     1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := migrateEventStore(tc.m, tc.autoMigrate)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantForced, tc.m.forced)
			require.Equal(t, tc.wantUps, tc.m.ups)
		})
	}
}

func TestRecoveryVersion(t *testing.T) {
	require.Equal(t, -1, recoveryVersion(1))
	require.Equal(t, -1, recoveryVersion(0))
	require.Equal(t, 4, recoveryVersion(5))
}
