// Package storage opens the track database and brings its schema up to date
// with the embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/config"
	"github.com/dmitrijs2005/trackmeta/internal/filex"
	"github.com/dmitrijs2005/trackmeta/internal/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// dialects maps a configured driver to its database/sql driver name and goose
// dialect.
var dialects = map[string]struct {
	sqlDriver string
	goose     string
}{
	config.DriverSQLite:   {sqlDriver: "sqlite", goose: "sqlite3"},
	config.DriverPostgres: {sqlDriver: "pgx", goose: "postgres"},
}

// RunMigrations applies the embedded migrations for the given driver.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrUnknownDriver, driver)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Open connects to the database and runs the migrations. The caller owns
// the returned handle.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownDriver, driver)
	}

	if driver == config.DriverSQLite {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == config.DriverSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
