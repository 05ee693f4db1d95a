package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/log"
)

// SessionNotFoundError is returned when no session has the requested name.
type SessionNotFoundError struct {
	Name string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.Name)
}

func (e *SessionNotFoundError) Kind() buddyerr.Kind { return buddyerr.KindValue }

// SessionInfo describes a saved session without loading its records.
type SessionInfo struct {
	Name        string
	OutFormat   string
	RecordCount int
	TrashCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const sessionColumns = `id, name, out_format, databases, record_count, trash_count, payload, created_at, updated_at`

// SessionRepository saves and restores DbBuddy containers by name.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func newSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func scanSession(scanner interface{ Scan(...any) error }) (*SessionModel, error) {
	var m SessionModel
	err := scanner.Scan(&m.ID, &m.Name, &m.OutFormat, &m.Databases, &m.RecordCount, &m.TrashCount,
		&m.Payload, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

// Save stores d under name, replacing any session of the same name. The
// original creation time of a replaced session is kept.
func (r *SessionRepository) Save(name string, d *dbbuddy.DbBuddy) error {
	if name == "" {
		return buddyerr.Valuef("session name must not be empty")
	}
	m, err := toSessionModel(name, d)
	if err != nil {
		return err
	}
	now := r.now().Unix()
	_, err = r.db.Exec(
		`INSERT INTO sessions (name, out_format, databases, record_count, trash_count, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			out_format = excluded.out_format,
			databases = excluded.databases,
			record_count = excluded.record_count,
			trash_count = excluded.trash_count,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		m.Name, m.OutFormat, m.Databases, m.RecordCount, m.TrashCount, m.Payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	log.Debug(log.CatDB, "session saved", "name", name, "records", m.RecordCount, "bytes", len(m.Payload))
	return nil
}

// Load restores the session saved under name.
func (r *SessionRepository) Load(name string) (*dbbuddy.DbBuddy, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE name = ?`, name)
	m, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &SessionNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return m.toDomain()
}

// List returns every saved session, most recently updated first.
func (r *SessionRepository) List() ([]SessionInfo, error) {
	rows, err := r.db.Query(
		`SELECT name, out_format, record_count, trash_count, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var created, updated int64
		if err := rows.Scan(&info.Name, &info.OutFormat, &info.RecordCount, &info.TrashCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.CreatedAt = time.Unix(created, 0)
		info.UpdatedAt = time.Unix(updated, 0)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

// Delete removes the session saved under name.
func (r *SessionRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &SessionNotFoundError{Name: name}
	}
	return nil
}
