// Package sqlite persists DbBuddy sessions and fetched record summaries in a
// SQLite database under the data directory.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/buddy/internal/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps the connection and hands out repositories over it.
type DB struct {
	conn *sql.DB
}

// NewDB opens the database at path, creating its directory with 0700
// permissions. An existing file is copied to path+".bak" before pending
// migrations run.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	existed := false
	if _, err := os.Stat(path); err == nil {
		existed = true
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	// pragmas are per connection
	conn.SetMaxOpenConns(1)

	if existed {
		if err := backup(path); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// SessionRepository returns the saved-session store.
func (db *DB) SessionRepository() *SessionRepository {
	return newSessionRepository(db.conn)
}

// SummaryCache returns the persistent summary cache.
func (db *DB) SummaryCache() *SummaryCache {
	return newSummaryCache(db.conn)
}

func backup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database for backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return dst.Close()
}

// migrate applies every embedded up migration newer than user_version, each
// in its own transaction.
func migrate(conn *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	var current uint
	if err := conn.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	version, err := src.First()
	for err == nil {
		if version > current {
			if err := apply(conn, src, version); err != nil {
				return err
			}
			log.Info(log.CatDB, "applied migration", "version", version)
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to walk migrations: %w", err)
	}
	return nil
}

func apply(conn *sql.DB, src source.Driver, version uint) error {
	r, name, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("failed to read migration %d: %w", version, err)
	}
	stmt, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return fmt.Errorf("failed to read migration %d: %w", version, err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(stmt)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d (%s) failed: %w", version, name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}
	return tx.Commit()
}
