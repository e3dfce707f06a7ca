// Package session persists sync-server session identity. A session ties
// a browser cookie to its state payload so reconnects resume the same
// component state. The memory store is the default; the SQLite store
// survives server restarts.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Session is one tracked client session.
type Session struct {
	ID        string
	State     map[string]interface{}
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store manages session lifecycle.
type Store interface {
	// Create mints a session with a fresh cryptographic ID.
	Create() (*Session, error)
	// Get retrieves a live session and refreshes its last-seen time.
	// An expired session reads as absent.
	Get(id string) (*Session, bool)
	// Put persists the session's current state.
	Put(s *Session) error
	// Delete removes a session.
	Delete(id string) error
	// Cleanup removes expired sessions and reports how many went.
	Cleanup() (int, error)
	// Close releases the store's resources.
	Close() error
}

// DefaultTTL is the session lifetime used when a store is built with a
// zero TTL.
const DefaultTTL = 24 * time.Hour

func generateID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
