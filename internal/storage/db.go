// Package storage persists simulation runs and their card statistics.
package storage

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const memoryPath = ":memory:"

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
}

// Config holds database configuration settings.
type Config struct {
	// Path is the file path to the SQLite database.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	// In-memory databases always use a single connection.
	MaxOpenConns int

	// BusyTimeout sets how long to wait when the database is locked.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (DELETE, WAL, ...).
	JournalMode string

	// Synchronous sets the SQLite synchronous mode (OFF, NORMAL, FULL).
	Synchronous string

	// AutoMigrate runs pending migrations on Open.
	AutoMigrate bool
}

// DefaultConfig returns a Config with default values for path.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:         path,
		MaxOpenConns: 8,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		AutoMigrate:  true,
	}
}

func (c *Config) dsn() string {
	if c.Path == memoryPath {
		return fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
			c.BusyTimeout.Milliseconds())
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)&_pragma=synchronous(%s)&_pragma=foreign_keys(1)",
		c.Path,
		c.BusyTimeout.Milliseconds(),
		c.JournalMode,
		c.Synchronous,
	)
}

// Open creates a new database connection with the given configuration.
//
// File databases are migrated with the migration manager before the pool is
// opened. An in-memory database lives only as long as its one connection, so
// the embedded up migrations are executed on it directly.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	memory := config.Path == memoryPath

	if !memory {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		if config.AutoMigrate {
			if err := migrateFile(config.Path); err != nil {
				return nil, err
			}
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	} else if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn}
	if memory && config.AutoMigrate {
		if err := db.applyEmbedded(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return db, nil
}

func migrateFile(path string) error {
	mgr, err := NewMigrationManager(path)
	if err != nil {
		return fmt.Errorf("create migration manager: %w", err)
	}
	if err := mgr.Up(); err != nil {
		_ = mgr.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := mgr.Close(); err != nil {
		return fmt.Errorf("close migration manager: %w", err)
	}
	return nil
}

// applyEmbedded executes every embedded up migration in version order.
func (db *DB) applyEmbedded() error {
	names, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, name := range names {
		script, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.conn.Exec(string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
