// Package session manages the authentication session: the bearer credential,
// the identity behind it, and the login/register/logout lifecycle. The store
// is the only component that mutates the credential; every other component
// reads it indirectly through the shared API client.
package session

import (
	"context"
	"log/slog"
	"sync"

	"stocktracker/internal/localstate"
	"stocktracker/pkg/stocktracker"
)

// networkErrMsg is the single message all transport-level failures collapse
// to; server rejections surface the backend's own message instead.
const networkErrMsg = "Network error. Please check your connection and try again."

// Store owns the session credential and identity.
type Store struct {
	client *stocktracker.Client
	state  *localstate.Store
	log    *slog.Logger

	mu    sync.RWMutex
	user  *stocktracker.User
	ready bool
}

// NewStore creates a session store over the given API client and local
// state. Call Initialize before rendering anything protected.
func NewStore(client *stocktracker.Client, state *localstate.Store, log *slog.Logger) *Store {
	return &Store{client: client, state: state, log: log}
}

// Initialize restores a persisted session if one exists: it loads the stored
// credential, verifies it against the identity endpoint, and either adopts
// the identity or discards the credential. Any failure — transport or a
// rejected token — degrades to "no session"; it is never propagated. The
// store is marked ready in all cases, and protected views must not render
// until it is.
func (s *Store) Initialize(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}()

	token, err := s.state.LoadCredential()
	if err != nil {
		s.log.Warn("loading stored credential", "error", err)
		return
	}
	if token == "" {
		return
	}

	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.log.Info("stored credential rejected, clearing", "error", err)
		s.client.ClearToken()
		if err := s.state.DeleteCredential(); err != nil {
			s.log.Warn("deleting stored credential", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.log.Info("session restored", "email", user.Email)
}

// Login exchanges credentials for a session. On success the credential is
// installed on the client and persisted, and the identity is adopted. On
// failure the returned message is the backend's error detail (or a network
// fallback) and any prior session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	token, user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return &AuthError{Message: stocktracker.ErrorMessage(err, networkErrMsg)}
	}
	s.adopt(token, user)
	return nil
}

// Register creates a new account and starts a session with it. Same failure
// contract as Login.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	token, user, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return &AuthError{Message: stocktracker.ErrorMessage(err, networkErrMsg)}
	}
	s.adopt(token, user)
	return nil
}

// Logout clears the credential and identity synchronously. It has no network
// effect; dependent views observe the revoked session immediately.
func (s *Store) Logout() {
	s.client.ClearToken()
	if err := s.state.DeleteCredential(); err != nil {
		s.log.Warn("deleting stored credential", "error", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *Store) adopt(token string, user stocktracker.User) {
	s.client.SetToken(token)
	if err := s.state.SaveCredential(token); err != nil {
		// The session still works for this process; it just won't survive
		// a restart.
		s.log.Warn("persisting credential", "error", err)
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

// Ready reports whether Initialize has settled. Protected views are gated on
// this flag.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Authenticated reports whether a verified identity is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns the current identity, or nil when unauthenticated.
func (s *Store) User() *stocktracker.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// AuthError is a login/register failure carrying a user-facing message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }
