// Package db provides the durable local store backing the offline data layer.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB with syncdesk-specific configuration.
type DB struct {
	*sql.DB

	quotaBytes int64
}

// Open opens the local SQLite store. The database is opened with:
// - WAL mode for concurrent reads during writes
// - Foreign key constraints enabled
// - A busy timeout so concurrent processes sharing the store back off
//
// The store must be usable before any network is reachable, so Open never
// touches the network.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "syncdesk.db")

	// modernc.org/sqlite is pure Go, no CGO
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Other tabs/processes may share the persisted store
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// SetQuota configures the soft storage quota reported by EstimateUsage.
// Zero means unlimited.
func (db *DB) SetQuota(bytes int64) {
	db.quotaBytes = bytes
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
