package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"enigma/internal/session"
)

// Schema for the journal.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    started_ns      INTEGER NOT NULL,
    machine_path    TEXT NOT NULL,
    fingerprint     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_ns);

CREATE TABLE IF NOT EXISTS entries (
    session_id      TEXT NOT NULL REFERENCES sessions(id),
    line            INTEGER NOT NULL,
    kind            TEXT NOT NULL,
    settings        TEXT NOT NULL,
    input           TEXT NOT NULL,
    output          TEXT NOT NULL,
    positions       TEXT NOT NULL,
    recorded_ns     INTEGER NOT NULL,
    PRIMARY KEY (session_id, line)
);
`

// Journal is the SQLite journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Session records the lines of one run. It implements session.Recorder.
type Session struct {
	j    *Journal
	info SessionInfo
}

// StartSession opens a new session for the machine description at
// machinePath.
func (j *Journal) StartSession(ctx context.Context, machinePath, fingerprint string) (*Session, error) {
	info := SessionInfo{
		ID:          uuid.New(),
		StartedAt:   j.now(),
		MachinePath: machinePath,
		Fingerprint: fingerprint,
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_ns, machine_path, fingerprint)
		VALUES (?, ?, ?, ?)`,
		info.ID.String(), info.StartedAt.UnixNano(), info.MachinePath, info.Fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &Session{j: j, info: info}, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.info.ID }

// Record appends one processed line.
func (s *Session) Record(ctx context.Context, e session.Entry) error {
	_, err := s.j.db.ExecContext(ctx, `
		INSERT INTO entries (session_id, line, kind, settings, input, output, positions, recorded_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.info.ID.String(), e.Line, string(e.Kind), e.Settings, e.Input, e.Output, e.Positions, s.j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, newest first. limit <= 0 lists all.
func (j *Journal) Sessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.started_ns, s.machine_path, s.fingerprint, COUNT(e.line)
		FROM sessions s
		LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_ns DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var (
			info      SessionInfo
			id        string
			startedNs int64
		)
		if err := rows.Scan(&id, &startedNs, &info.MachinePath, &info.Fingerprint, &info.Entries); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session id %q: %w", id, err)
		}
		info.StartedAt = time.Unix(0, startedNs)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Entries returns the lines of session id in line order.
func (j *Journal) Entries(ctx context.Context, id uuid.UUID) ([]session.Entry, error) {
	var exists int
	err := j.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT line, kind, settings, input, output, positions
		FROM entries
		WHERE session_id = ?
		ORDER BY line ASC`, id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []session.Entry
	for rows.Next() {
		var (
			e    session.Entry
			kind string
		)
		if err := rows.Scan(&e.Line, &kind, &e.Settings, &e.Input, &e.Output, &e.Positions); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = session.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
