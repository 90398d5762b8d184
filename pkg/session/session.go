// Package session stores ubus login sessions between invocations.
//
// A ubus login returns an opaque ubus_rpc_session token valid for a server-
// chosen number of seconds. Storing it avoids a login round trip (and a
// password prompt) on every fetch.
//
// Two backends implement [Store]:
//   - [FileStore]: JSON files under ~/.config/meshtower/sessions/, owner-only
//   - [MemoryStore]: in-process, for `meshtower serve` and tests
//
// Sessions are keyed by [ID], derived from the endpoint and the username, so
// one user can hold sessions on several routers.
//
//	sess := session.New(endpoint, "root", token, 300*time.Second)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, session.ID(endpoint, "root"))
//	if sess == nil {
//	    // Not logged in, or the token expired
//	}
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// expirySlack is subtracted from the server-reported lifetime so a token is
// never used in the last moments before the router drops it.
const expirySlack = 5 * time.Second

// Session is one ubus login.
type Session struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// ID returns the storage key for a login on endpoint as username.
func ID(endpoint, username string) string {
	sum := sha256.Sum256([]byte(endpoint + "\x00" + username))
	return hex.EncodeToString(sum[:16])
}

// New creates a session for token, valid for ttl as reported by the router.
func New(endpoint, username, token string, ttl time.Duration) *Session {
	now := time.Now()
	if ttl > expirySlack {
		ttl -= expirySlack
	}
	return &Session{
		ID:        ID(endpoint, username),
		Endpoint:  endpoint,
		Username:  username,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// MemoryStore keeps sessions in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || sess.IsExpired() {
		return nil, nil
	}
	return &sess, nil
}

func (m *MemoryStore) Set(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = *sess
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.IsExpired() {
			delete(m.sessions, id)
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
