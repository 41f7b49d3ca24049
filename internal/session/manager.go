// Package session owns the authentication lifecycle: login, logout,
// restoration from the persistent store, and the in-memory current
// user/token pair.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mittrack/internal/api"
	"mittrack/internal/model"
	"mittrack/internal/store"
)

// Fixed keys in the persistent session store.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// API is the slice of the remote client the manager needs.
type API interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	SetToken(token string)
	ClearToken()
}

// Manager holds the session state. The invariant is that user and token are
// set or cleared together: IsAuthenticated never observes one without the
// other.
type Manager struct {
	api   API
	store store.SessionStore
	log   *slog.Logger

	mu      sync.Mutex
	user    *model.User
	token   string
	loading bool
	errMsg  string
}

func NewManager(apiClient API, st store.SessionStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		api:   apiClient,
		store: st,
		log:   log,
	}
}

// Restore loads the persisted session, if any. Malformed or expired stored
// data is purged and never surfaced as a valid session; restoration failures
// self-heal rather than error.
func (m *Manager) Restore() {
	token, err := m.store.Get(TokenKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn("session store read failed", "key", TokenKey, "error", err)
		}
		return
	}

	rawUser, err := m.store.Get(UserKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn("session store read failed", "key", UserKey, "error", err)
		}
		return
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.log.Warn("purging malformed stored session", "error", err)
		m.purge()
		return
	}

	if tokenExpired(token) {
		m.log.Info("purging expired stored session")
		m.purge()
		return
	}

	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()
	m.api.SetToken(token)

	m.log.Info("session restored", "user", user.Email)
}

// Login issues one authentication request. On success the session is set and
// persisted and true is returned; on any failure the session is left
// unchanged, the error message recorded, and false returned. The store is
// only written on success.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	m.mu.Lock()
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	user, token, err := m.api.Login(ctx, email, password)
	if err != nil {
		msg := api.Message(err, "login failed")
		m.mu.Lock()
		m.errMsg = msg
		m.mu.Unlock()
		m.log.Warn("login failed", "email", email, "error", err)
		return false
	}

	m.mu.Lock()
	m.user = user
	m.token = token
	m.mu.Unlock()
	m.api.SetToken(token)

	m.persist(user, token)

	m.log.Info("login succeeded", "user", user.Email)
	return true
}

// Logout clears the in-memory session, any error, and the persisted
// credentials. Safe to call when already logged out.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.errMsg = ""
	m.mu.Unlock()

	m.api.ClearToken()
	m.purge()
}

// IsAuthenticated reports whether both a user and a token are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != ""
}

func (m *Manager) CurrentUser() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the message recorded by the last failed operation, or "".
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Manager) persist(user *model.User, token string) {
	raw, err := json.Marshal(user)
	if err != nil {
		m.log.Warn("marshal session user failed", "error", err)
		return
	}
	if err := m.store.Set(TokenKey, token); err != nil {
		m.log.Warn("persist session token failed", "error", err)
	}
	if err := m.store.Set(UserKey, string(raw)); err != nil {
		m.log.Warn("persist session user failed", "error", err)
	}
}

func (m *Manager) purge() {
	if err := m.store.Delete(TokenKey); err != nil {
		m.log.Warn("purge session token failed", "error", err)
	}
	if err := m.store.Delete(UserKey); err != nil {
		m.log.Warn("purge session user failed", "error", err)
	}
}

// tokenExpired inspects a JWT's exp claim without verifying the signature.
// Opaque (non-JWT) tokens are accepted as-is; expiry is the server's call.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
