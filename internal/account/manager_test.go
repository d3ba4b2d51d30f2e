package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwoody02/shoppy-go/pkg/logger"
)

type stubGateway struct {
	token     string
	expiresAt time.Time
	createErr error
	deleteErr error
	deleted   []string
}

func (g *stubGateway) CustomerAccessTokenCreate(ctx context.Context, email, password string) (string, time.Time, error) {
	if g.createErr != nil {
		return "", time.Time{}, g.createErr
	}
	return g.token, g.expiresAt, nil
}

func (g *stubGateway) CustomerAccessTokenDelete(ctx context.Context, token string) error {
	g.deleted = append(g.deleted, token)
	return g.deleteErr
}

func newManager(t *testing.T, dir string, gateway *stubGateway) *Manager {
	t.Helper()

	m, err := NewManager(Params{
		Dir:        dir,
		ShopDomain: "demo.myshopify.com",
		Gateway:    gateway,
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	return m
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	gateway := &stubGateway{}

	cases := []Params{
		{ShopDomain: "demo.myshopify.com", Logger: logg},
		{ShopDomain: "demo.myshopify.com", Gateway: gateway},
		{Gateway: gateway, Logger: logg},
	}
	for i, params := range cases {
		if _, err := NewManager(params); err == nil {
			t.Fatalf("case %d: expected constructor error", i)
		}
	}
}

func TestLoginStoresAndPersistsToken(t *testing.T) {
	dir := t.TempDir()
	gateway := &stubGateway{token: "cat-1", expiresAt: time.Now().Add(time.Hour)}
	m := newManager(t, dir, gateway)

	if m.LoggedIn() {
		t.Fatal("fresh manager must start logged out")
	}
	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if got := m.CurrentToken(); got != "cat-1" {
		t.Fatalf("expected token cat-1, got %q", got)
	}

	// a fresh manager restores the session from disk
	restored := newManager(t, dir, gateway)
	if got := restored.CurrentToken(); got != "cat-1" {
		t.Fatalf("expected restored token, got %q", got)
	}
}

func TestExpiredTokenReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	gateway := &stubGateway{token: "cat-1", expiresAt: time.Now().Add(-time.Minute)}
	m := newManager(t, dir, gateway)

	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if got := m.CurrentToken(); got != "" {
		t.Fatalf("expired token must read as empty, got %q", got)
	}
	if m.LoggedIn() {
		t.Fatal("expired session must not count as logged in")
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	gateway := &stubGateway{createErr: errors.New("bad credentials")}
	m := newManager(t, t.TempDir(), gateway)

	if err := m.Login(context.Background(), "buyer@example.com", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
	if m.LoggedIn() {
		t.Fatal("failed login must not create a session")
	}
}

func TestLogoutRevokesAndClears(t *testing.T) {
	dir := t.TempDir()
	gateway := &stubGateway{token: "cat-1", expiresAt: time.Now().Add(time.Hour)}
	m := newManager(t, dir, gateway)

	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	m.Logout(context.Background())

	if m.LoggedIn() {
		t.Fatal("expected logged out state")
	}
	if len(gateway.deleted) != 1 || gateway.deleted[0] != "cat-1" {
		t.Fatalf("expected remote revocation of cat-1, got %v", gateway.deleted)
	}

	// persisted session is cleared too
	restored := newManager(t, dir, gateway)
	if restored.LoggedIn() {
		t.Fatal("logout must clear the persisted session")
	}
}

func TestLogoutSurvivesRevocationFailure(t *testing.T) {
	gateway := &stubGateway{
		token:     "cat-1",
		expiresAt: time.Now().Add(time.Hour),
		deleteErr: errors.New("network down"),
	}
	m := newManager(t, t.TempDir(), gateway)

	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	m.Logout(context.Background())

	if m.LoggedIn() {
		t.Fatal("local session must clear even when revocation fails")
	}
}

func TestOnLoginStatusNotifiesTransitions(t *testing.T) {
	gateway := &stubGateway{token: "cat-1", expiresAt: time.Now().Add(time.Hour)}
	m := newManager(t, t.TempDir(), gateway)

	var transitions []bool
	cancel := m.OnLoginStatus(func(loggedIn bool) {
		transitions = append(transitions, loggedIn)
	})

	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	// re-login with a live session is not a transition
	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	m.Logout(context.Background())

	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Fatalf("expected [true false], got %v", transitions)
	}

	cancel()
	if err := m.Login(context.Background(), "buyer@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("cancelled subscription must not fire, got %v", transitions)
	}
}
