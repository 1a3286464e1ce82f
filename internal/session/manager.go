// Package session implements the server-side session store backing the
// authentication cookie.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/librarium/backend/internal/models"
)

// CookieName is the name of the session cookie
const CookieName = "library_session"

// tokenBytes is the entropy of the opaque session token
const tokenBytes = 32

// Identity is the snapshot of the authenticated user taken at login time.
// It is authoritative for the session's lifetime: changes to the underlying
// user record do not propagate until re-login.
type Identity struct {
	ID       int         `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type entry struct {
	identity  Identity
	expiresAt time.Time
}

// Manager maps opaque tokens to identity snapshots and signs the token into
// the session cookie. Sessions expire on a fixed TTL; expired entries are
// dropped lazily on read.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	codec    *securecookie.SecureCookie
	now      func() time.Time
}

// NewManager creates a session manager signing cookies with the given secret
func NewManager(secret []byte, ttl time.Duration) *Manager {
	codec := securecookie.New(secret, nil)
	codec.MaxAge(int(ttl.Seconds()))

	return &Manager{
		sessions: make(map[string]entry),
		ttl:      ttl,
		codec:    codec,
		now:      time.Now,
	}
}

// Create generates an unguessable token bound to the identity snapshot
func (m *Manager) Create(identity Identity) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = entry{
		identity:  identity,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	return token, nil
}

// Read returns the identity bound to the token, or false if the token is
// unknown, invalid or expired
func (m *Manager) Read(token string) (Identity, bool) {
	m.mu.RLock()
	e, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return Identity{}, false
	}

	if m.now().After(e.expiresAt) {
		m.Destroy(token)
		return Identity{}, false
	}

	return e.identity, true
}

// Destroy invalidates the session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// WriteCookie signs the token and sets it as the session cookie
func (m *Manager) WriteCookie(w http.ResponseWriter, token string) error {
	encoded, err := m.codec.Encode(CookieName, token)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadCookie extracts and verifies the session token from the request cookie.
// A missing cookie or a cookie with a bad signature yields false.
func (m *Manager) ReadCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}

	var token string
	if err := m.codec.Decode(CookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, true
}

// ClearCookie expires the session cookie on the client
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve reads the identity for the request, combining cookie verification
// and the store lookup
func (m *Manager) Resolve(r *http.Request) (Identity, bool) {
	token, ok := m.ReadCookie(r)
	if !ok {
		return Identity{}, false
	}
	return m.Read(token)
}
