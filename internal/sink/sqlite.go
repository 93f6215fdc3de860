package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    ended_at   INTEGER,
    hostname   TEXT NOT NULL DEFAULT '',
    backend    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS fragments (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    seq        INTEGER NOT NULL,
    written_ns INTEGER NOT NULL,
    fragment   TEXT NOT NULL,
    UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_fragments_session ON fragments(session_id, seq);
`

// Session is one contiguous capture run. EndedAt is nil while the
// session is still open.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Hostname  string
	Backend   string
}

// Fragment is a single translated unit of text within a session.
type Fragment struct {
	ID        int64
	SessionID string
	Seq       int64
	WrittenAt time.Time
	Text      string
}

// SQLiteSink stores transcripts in a local SQLite database, one row
// per fragment, grouped into sessions. It implements Sink for the
// currently open session.
type SQLiteSink struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	session string
	seq     int64
}

// OpenSQLite opens or creates the transcript database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(transcriptSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteSink{db: db, path: path}, nil
}

// BeginSession opens a new capture session. Any previously open
// session is closed first.
func (s *SQLiteSink) BeginSession(id, backend string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != "" {
		if err := s.endSessionLocked(); err != nil {
			return err
		}
	}

	hostname, _ := os.Hostname()

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, started_at, hostname, backend) VALUES (?, ?, ?, ?)`,
		id, time.Now().Unix(), hostname, backend,
	)
	if err != nil {
		return fmt.Errorf("beginning session: %w", err)
	}

	s.session = id
	s.seq = 0
	return nil
}

// Write appends a fragment to the open session.
func (s *SQLiteSink) Write(fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return fmt.Errorf("sqlite sink: no open session")
	}

	_, err := s.db.Exec(
		`INSERT INTO fragments (session_id, seq, written_ns, fragment) VALUES (?, ?, ?, ?)`,
		s.session, s.seq, time.Now().UnixNano(), fragment,
	)
	if err != nil {
		return fmt.Errorf("writing fragment: %w", err)
	}

	s.seq++
	return nil
}

// EndSession marks the open session as finished.
func (s *SQLiteSink) EndSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endSessionLocked()
}

func (s *SQLiteSink) endSessionLocked() error {
	if s.session == "" {
		return nil
	}

	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		time.Now().Unix(), s.session,
	)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	s.session = ""
	s.seq = 0
	return nil
}

// Sessions returns all recorded sessions, newest first.
func (s *SQLiteSink) Sessions() ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, ended_at, hostname, backend FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Session returns a single session by ID, or nil if it does not exist.
func (s *SQLiteSink) Session(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, ended_at, hostname, backend FROM sessions WHERE id = ?`, id,
	)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Fragments returns a session's fragments in capture order.
func (s *SQLiteSink) Fragments(sessionID string) ([]*Fragment, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, seq, written_ns, fragment FROM fragments WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	var fragments []*Fragment
	for rows.Next() {
		var f Fragment
		var ns int64
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Seq, &ns, &f.Text); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		f.WrittenAt = time.Unix(0, ns)
		fragments = append(fragments, &f)
	}
	return fragments, rows.Err()
}

// TranscriptText reassembles a session's transcript by concatenating
// its fragments in order.
func (s *SQLiteSink) TranscriptText(sessionID string) (string, error) {
	rows, err := s.db.Query(
		`SELECT fragment FROM fragments WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return "", fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	var text strings.Builder
	for rows.Next() {
		var fragment string
		if err := rows.Scan(&fragment); err != nil {
			return "", fmt.Errorf("scanning transcript: %w", err)
		}
		text.WriteString(fragment)
	}
	return text.String(), rows.Err()
}

// Ping verifies the database connection, for health checks.
func (s *SQLiteSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close ends any open session and closes the database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	if s.session != "" {
		s.endSessionLocked()
	}
	s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var started int64
	var ended sql.NullInt64

	if err := row.Scan(&sess.ID, &started, &ended, &sess.Hostname, &sess.Backend); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	sess.StartedAt = time.Unix(started, 0)
	if ended.Valid {
		t := time.Unix(ended.Int64, 0)
		sess.EndedAt = &t
	}
	return &sess, nil
}
