package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

//go:embed migration/*.sql
var migrationFS embed.FS

// NewDB opens a PostgreSQL database specified by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(10)
	pgDB.SetMaxIdleConns(5)

	return &DB{db: pgDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate applies every embedded migration file in name order. The
// schema files are idempotent so re-running on startup is safe.
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

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			list += ", "
		}
		list += placeholder(i)
	}
	return list
}
