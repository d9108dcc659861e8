package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// An in-memory database must be limited to one connection, otherwise each pooled connection sees its own empty schema.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// OpenCache opens the local track cache described by cfg and brings its schema up to date.
func OpenCache(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
