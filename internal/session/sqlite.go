package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in a SQLite database, so a dev-server
// restart does not invalidate session cookies. State is stored as JSON;
// non-serializable values fail at Put time.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  last_seen DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen);
`

// NewSQLiteStore opens (or creates) the session database at path. Use
// ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Create mints a new session row.
func (s *SQLiteStore) Create() (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        id,
		State:     make(map[string]interface{}),
		CreatedAt: now,
		LastSeen:  now,
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, state, created_at, last_seen) VALUES (?, ?, ?, ?)`,
		sess.ID, "{}", sess.CreatedAt, sess.LastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get retrieves a session, dropping it when expired.
func (s *SQLiteStore) Get(id string) (*Session, bool) {
	var (
		sess  = &Session{ID: id}
		state string
	)
	err := s.db.QueryRow(
		`SELECT state, created_at, last_seen FROM sessions WHERE id = ?`, id,
	).Scan(&state, &sess.CreatedAt, &sess.LastSeen)
	if err != nil {
		return nil, false
	}
	if time.Since(sess.LastSeen) > s.ttl {
		_, _ = s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
		return nil, false
	}
	if err := json.Unmarshal([]byte(state), &sess.State); err != nil {
		return nil, false
	}
	sess.LastSeen = time.Now().UTC()
	_, _ = s.db.Exec(`UPDATE sessions SET last_seen = ? WHERE id = ?`, sess.LastSeen, id)
	return sess, true
}

// Put persists the session's state as JSON.
func (s *SQLiteStore) Put(sess *Session) error {
	state, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	sess.LastSeen = time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE sessions SET state = ?, last_seen = ? WHERE id = ?`,
		string(state), sess.LastSeen, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session row.
func (s *SQLiteStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Cleanup removes expired session rows.
func (s *SQLiteStore) Cleanup() (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	res, err := s.db.Exec(`DELETE FROM sessions WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
