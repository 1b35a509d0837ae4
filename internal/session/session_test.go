package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"stocktracker/internal/demoserver"
	"stocktracker/internal/localstate"
	"stocktracker/pkg/stocktracker"
)

const (
	demoEmail    = "demo@stocktracker.local"
	demoPassword = "demo123"
)

type fixture struct {
	demo   *demoserver.Server
	client *stocktracker.Client
	state  *localstate.Store
	store  *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	demo := demoserver.NewServer(logger, demoserver.WithSeed(1))
	srv := httptest.NewServer(demo.Handler())
	t.Cleanup(srv.Close)

	state, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("opening state: %v", err)
	}
	t.Cleanup(func() { state.Close() })

	client := stocktracker.NewClient(srv.URL + "/api")
	return &fixture{
		demo:   demo,
		client: client,
		state:  state,
		store:  NewStore(client, state, logger),
	}
}

func TestInitializeWithoutCredential(t *testing.T) {
	f := newFixture(t)

	f.store.Initialize(context.Background())

	if !f.store.Ready() {
		t.Error("store must be ready after Initialize")
	}
	if f.store.Authenticated() {
		t.Error("no credential, no session")
	}
	if f.store.User() != nil {
		t.Error("expected nil user")
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)

	if err := f.store.Login(context.Background(), demoEmail, demoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !f.store.Authenticated() {
		t.Fatal("expected an authenticated session")
	}
	u := f.store.User()
	if u == nil || u.Email != demoEmail {
		t.Errorf("expected identity %s, got %+v", demoEmail, u)
	}
	if f.client.Token() == "" {
		t.Error("login must install the credential on the client")
	}

	// The credential must be persisted for the next run.
	saved, err := f.state.LoadCredential()
	if err != nil {
		t.Fatalf("loading credential: %v", err)
	}
	if saved != f.client.Token() {
		t.Errorf("persisted credential %q != client credential %q", saved, f.client.Token())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	err := f.store.Login(context.Background(), demoEmail, "wrong-password")
	if err == nil {
		t.Fatal("expected login to fail")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Errorf("expected the backend message verbatim, got %q", authErr.Message)
	}
	if f.store.Authenticated() {
		t.Error("failed login must not create a session")
	}
	if f.client.Token() != "" {
		t.Error("failed login must not install a credential")
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	state, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	// Nothing listens here.
	client := stocktracker.NewClient("http://127.0.0.1:1/api")
	store := NewStore(client, state, logger)

	loginErr := store.Login(context.Background(), demoEmail, demoPassword)
	if loginErr == nil {
		t.Fatal("expected login to fail")
	}
	var authErr *AuthError
	if !errors.As(loginErr, &authErr) {
		t.Fatalf("expected *AuthError, got %T", loginErr)
	}
	if authErr.Message != "Network error. Please check your connection and try again." {
		t.Errorf("expected the network fallback message, got %q", authErr.Message)
	}
}

func TestRegisterAndDuplicate(t *testing.T) {
	f := newFixture(t)

	if err := f.store.Register(context.Background(), "New User", "new@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !f.store.Authenticated() {
		t.Fatal("register must start a session")
	}
	if got := f.store.User().Name; got != "New User" {
		t.Errorf("expected name New User, got %q", got)
	}

	// A second registration with the same email is rejected.
	f2 := NewStore(f.client, f.state, slog.New(slog.DiscardHandler))
	err := f2.Register(context.Background(), "Other", "new@example.com", "pw2")
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Message != "Email already registered" {
		t.Errorf("expected duplicate message, got %q", authErr.Message)
	}
}

// Logout is synchronous: after it returns, the credential is gone from both
// the client and the persisted state.
func TestLogout(t *testing.T) {
	f := newFixture(t)

	if err := f.store.Login(context.Background(), demoEmail, demoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.store.Logout()

	if f.store.Authenticated() {
		t.Error("expected no session after logout")
	}
	if f.client.Token() != "" {
		t.Error("logout must clear the client credential")
	}
	saved, err := f.state.LoadCredential()
	if err != nil {
		t.Fatal(err)
	}
	if saved != "" {
		t.Error("logout must delete the persisted credential")
	}
}

func TestInitializeRestoresSession(t *testing.T) {
	f := newFixture(t)

	if err := f.store.Login(context.Background(), demoEmail, demoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	token := f.client.Token()

	// Simulate a fresh process over the same state database.
	f.client.ClearToken()
	restored := NewStore(f.client, f.state, slog.New(slog.DiscardHandler))
	restored.Initialize(context.Background())

	if !restored.Authenticated() {
		t.Fatal("expected the persisted session to be restored")
	}
	if f.client.Token() != token {
		t.Error("restore must reinstall the persisted credential")
	}
	if got := restored.User().Email; got != demoEmail {
		t.Errorf("expected restored identity %s, got %s", demoEmail, got)
	}
}

func TestInitializeDiscardsRejectedCredential(t *testing.T) {
	f := newFixture(t)

	if err := f.store.Login(context.Background(), demoEmail, demoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.demo.RevokeToken(f.client.Token())
	f.client.ClearToken()

	restored := NewStore(f.client, f.state, slog.New(slog.DiscardHandler))
	restored.Initialize(context.Background())

	if !restored.Ready() {
		t.Error("store must be ready even after a rejected credential")
	}
	if restored.Authenticated() {
		t.Error("a rejected credential must not produce a session")
	}
	if f.client.Token() != "" {
		t.Error("the rejected credential must be cleared from the client")
	}
	saved, err := f.state.LoadCredential()
	if err != nil {
		t.Fatal(err)
	}
	if saved != "" {
		t.Error("the rejected credential must be deleted from state")
	}
}
