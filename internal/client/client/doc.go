// Package client bootstraps the local cache database for the usersync CLI.
//
// InitDatabase opens either an SQLite (modernc.org/sqlite) or a PostgreSQL
// (pgx stdlib) database and applies the embedded goose migrations for that
// dialect. An unknown driver name yields ErrUnsupportedDriver.
package client
