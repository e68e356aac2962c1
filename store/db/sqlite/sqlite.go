package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

// SQLite is the default driver for single-coach instances: one local
// file, no server to run. Concurrent writes are serialized through a
// single connection; the sync loop and the HTTP handlers share it.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

//go:embed migration/*.sql
var migrationFS embed.FS

// NewDB opens the SQLite database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode prevents reader/writer lock contention; the
	// busy timeout covers the rare overlap between the cron sync and a
	// request. Pragmas use the modernc.org/sqlite `_pragma=` form.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate applies every embedded migration file in name order. The
// schema files are written to be idempotent (CREATE TABLE IF NOT
// EXISTS), so re-running on startup is safe.
func (d *DB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationFS, "migration/*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}
	sort.Strings(names)
	for _, name := range names {
		buf, err := migrationFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		if _, err := d.db.ExecContext(ctx, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}
	}
	return nil
}
