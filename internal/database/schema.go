package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// Deployed databases are provisioned outside this service; the migrations
// exist for the local server and tests.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// EnsureSchema applies pending migrations to db and leaves it open.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, release, err := migrationDriver(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to initialize migration driver: %w", err)
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", source, "metadata", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// migrationDriver picks the migrate driver for the handle's sql driver. The
// sqlite drivers close the handle on Close, so release only returns the
// dedicated connection the postgres driver holds.
func migrationDriver(ctx context.Context, db *sql.DB) (migratedb.Driver, func(), error) {
	noop := func() {}

	switch db.Driver().(type) {
	case *sqlite3.SQLiteDriver:
		driver, err := migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
		return driver, noop, err
	case *sqlite.Driver:
		driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		return driver, noop, err
	case *pq.Driver, *stdlib.Driver:
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, noop, err
		}
		driver, err := migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
		if err != nil {
			conn.Close()
			return nil, noop, err
		}
		return driver, func() { driver.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("no migration driver for %T", db.Driver())
	}
}
