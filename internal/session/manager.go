// Package session owns the authenticated session lifecycle: logging
// in against the REST API, persisting credentials in the system
// keyring, and restoring them on the next start. Everything that
// needs the signed-in user id or token reads it from here.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/credential"
	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// Manager holds the current session and keeps the API client's bearer
// token in step with it.
type Manager struct {
	client *api.Client

	mu      sync.RWMutex
	session model.Session
	user    *model.User
}

// NewManager creates a session manager bound to the given API client.
func NewManager(client *api.Client) *Manager {
	return &Manager{client: client}
}

// Restore loads persisted credentials from the keyring, installs the
// token on the API client, and fetches the user profile to confirm
// the token is still accepted. It returns false without error when no
// credentials are stored.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	token, userID, err := credential.LoadSession()
	if err != nil || token == "" || userID == "" {
		// Nothing persisted (or keyring unavailable): start signed out.
		return false, nil
	}

	m.client.SetToken(token)
	user, err := m.client.Profile(ctx, userID)
	if err != nil {
		if api.IsAuthError(err) {
			// Stale token: discard it and start signed out.
			m.client.SetToken("")
			_ = credential.ClearSession()
			return false, nil
		}
		m.client.SetToken("")
		return false, fmt.Errorf("restoring session: %w", err)
	}

	m.mu.Lock()
	m.session = model.Session{UserID: userID, Token: token}
	m.user = user
	m.mu.Unlock()
	return true, nil
}

// Login authenticates with the university id and password, persists
// the issued credentials, and loads the user profile.
func (m *Manager) Login(ctx context.Context, universityID, password string) error {
	creds, err := m.client.Login(ctx, universityID, password)
	if err != nil {
		return err
	}

	m.client.SetToken(creds.Token)
	user, err := m.client.Profile(ctx, creds.UserID)
	if err != nil {
		m.client.SetToken("")
		return fmt.Errorf("loading profile after login: %w", err)
	}

	if err := credential.SaveSession(creds.Token, creds.UserID); err != nil {
		// A failed keyring write only loses persistence across
		// restarts; the live session is still usable.
		log.Printf("session: persisting credentials failed: %v", err)
	}

	m.mu.Lock()
	m.session = model.Session{UserID: creds.UserID, Token: creds.Token}
	m.user = user
	m.mu.Unlock()
	return nil
}

// Register creates a new account and then logs in with it.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	if err := m.client.Register(ctx, req); err != nil {
		return err
	}
	return m.Login(ctx, req.UniversityID, req.Password)
}

// Logout destroys the session: clears persisted credentials, the API
// token, and the in-memory state. Safe to call when signed out.
func (m *Manager) Logout() {
	_ = credential.ClearSession()
	m.client.SetToken("")

	m.mu.Lock()
	m.session = model.Session{}
	m.user = nil
	m.mu.Unlock()
}

// Session returns a copy of the current session. The zero value means
// signed out.
func (m *Manager) Session() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// UserID returns the signed-in user id, or "" when signed out.
func (m *Manager) UserID() string {
	return m.Session().UserID
}

// User returns the cached profile of the signed-in user, or nil.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// SetUser replaces the cached profile, e.g. after a bio update.
func (m *Manager) SetUser(u *model.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

// Authenticated reports whether a session currently exists.
func (m *Manager) Authenticated() bool {
	return m.Session().Valid()
}

// Credentials returns the bearer token and user id of the current
// session. The push channel authenticates with these.
func (m *Manager) Credentials() (token, userID string) {
	s := m.Session()
	return s.Token, s.UserID
}
