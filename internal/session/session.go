// Package session keeps server-side login sessions. The upstream API hands
// out a bearer token at login; the browser only ever sees an opaque session
// cookie, and the token stays on this side.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

const CookieName = "shopledger_session"

// Gateway is what the manager needs from a backend: an unbound client to
// log in with and a binder to scope the resulting token.
type Gateway interface {
	ports.Backend
	ports.Binder
}

type Session struct {
	ID        string
	Token     string
	UserID    string
	Username  string
	Role      core.Role
	Backend   ports.Backend
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Expired() bool { return time.Now().After(s.ExpiresAt) }

func (s *Session) IsAdmin() bool { return s.Role == core.RoleAdmin }

type Manager struct {
	mu       sync.Mutex
	gateway  Gateway
	ttl      time.Duration
	logger   *log.Logger
	sessions map[string]*Session
}

func NewManager(gw Gateway, ttl time.Duration, logger *log.Logger) *Manager {
	return &Manager{
		gateway:  gw,
		ttl:      ttl,
		logger:   logger.WithComponent(log.ComponentSession),
		sessions: make(map[string]*Session),
	}
}

// Login authenticates against the upstream API and, on success, creates a
// session holding a token-bound backend. The user id is resolved best-effort
// from the profile endpoint; an empty id only disables the self-targeting
// guards that need it.
func (m *Manager) Login(ctx context.Context, creds ports.Credentials) (*Session, error) {
	res, err := m.gateway.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	bound := m.gateway.Bind(res.Token)
	now := time.Now()
	s := &Session{
		ID:        newSessionID(),
		Token:     res.Token,
		Username:  res.Username,
		Role:      res.Role,
		Backend:   bound,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if me, err := bound.Me(ctx); err == nil {
		s.UserID = me.ID
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session created",
		log.FieldUsername, s.Username,
		log.FieldRole, string(s.Role),
		log.FieldOperation, log.OpLogin)
	return s, nil
}

// Anonymous returns the unbound backend, for the operations available
// before login (registration).
func (m *Manager) Anonymous() ports.Backend {
	return m.gateway
}

// Get returns the live session with the given id. Expired sessions are
// dropped on access.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if s.Expired() {
		delete(m.sessions, id)
		return nil, false
	}
	return s, true
}

func (m *Manager) Logout(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.logger.InfoContext(ctx, "session destroyed",
			log.FieldUsername, s.Username,
			log.FieldOperation, log.OpLogout)
	}
}

// Len reports the number of stored sessions, expired ones included until
// their next access.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// FromRequest resolves the session referenced by the request cookie.
func (m *Manager) FromRequest(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return m.Get(c.Value)
}

// SetCookie attaches the session cookie to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
