package client

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/usersync/internal/client/migrations"
	"github.com/dmitrijs2005/usersync/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the dialect.
func RunMigrations(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	var gooseDialect, dir string
	switch d {
	case dbx.DialectSQLite:
		gooseDialect, dir = "sqlite3", migrations.SQLiteDir
	case dbx.DialectPostgres:
		gooseDialect, dir = "pgx", migrations.PostgresDir
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, d)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the cache database with the given driver ("sqlite" or
// "pgx") and brings its schema up to date.
func InitDatabase(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d := dbx.Dialect(driver)
	if d != dbx.DialectSQLite && d != dbx.DialectPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// one connection keeps ":memory:" databases alive and avoids SQLITE_BUSY
	if d == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
