package account

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/jwoody02/shoppy-go/pkg/errors"
	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/storage/cartfile"
)

// Gateway is the remote surface the manager exchanges credentials with.
type Gateway interface {
	CustomerAccessTokenCreate(ctx context.Context, email, password string) (string, time.Time, error)
	CustomerAccessTokenDelete(ctx context.Context, token string) error
}

type session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s session) live(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

// Params configure the account manager.
type Params struct {
	Dir        string
	ShopDomain string
	Gateway    Gateway
	Logger     *logger.Logger
}

// Manager owns the buyer's customer access token: it exchanges
// credentials for one, persists it per shop domain, and hands it out
// until it expires. A token past its expiry is treated as absent
// rather than surfaced stale.
type Manager struct {
	path    string
	gateway Gateway
	logg    *logger.Logger

	mu      sync.Mutex
	current session
	subs    map[int]func(loggedIn bool)
	nextSub int
}

// NewManager builds a manager and restores any persisted session.
func NewManager(params Params) (*Manager, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	domain := strings.TrimSpace(params.ShopDomain)
	if domain == "" {
		return nil, fmt.Errorf("shop domain required")
	}
	dir := params.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	m := &Manager{
		path:    filepath.Join(dir, domain+".session.json"),
		gateway: params.Gateway,
		logg:    params.Logger,
		subs:    make(map[int]func(bool)),
	}
	m.current = m.restore()
	return m, nil
}

// CurrentToken returns the live access token, empty when logged out
// or expired.
func (m *Manager) CurrentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current.live(time.Now()) {
		return ""
	}
	return m.current.Token
}

// LoggedIn reports whether a live session exists.
func (m *Manager) LoggedIn() bool {
	return m.CurrentToken() != ""
}

// OnLoginStatus registers a subscriber for login state changes. The
// returned function cancels the subscription.
func (m *Manager) OnLoginStatus(fn func(loggedIn bool)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Login exchanges credentials for an access token and persists it.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	ctx = m.logg.WithField(ctx, "email", email)

	token, expiresAt, err := m.gateway.CustomerAccessTokenCreate(ctx, email, password)
	if err != nil {
		m.logg.Warn(ctx, "login failed")
		return err
	}

	m.mu.Lock()
	wasLive := m.current.live(time.Now())
	m.current = session{Token: token, ExpiresAt: expiresAt}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	if err := m.persist(session{Token: token, ExpiresAt: expiresAt}); err != nil {
		m.logg.Error(ctx, "could not persist session", err)
	}
	m.logg.Info(ctx, "logged in")

	if !wasLive {
		for _, fn := range subs {
			fn(true)
		}
	}
	return nil
}

// Logout revokes the token remotely when possible and always clears
// the local session. Remote revocation failure is logged, not returned.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.current.Token
	wasLive := m.current.live(time.Now())
	m.current = session{}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	if token != "" {
		if err := m.gateway.CustomerAccessTokenDelete(ctx, token); err != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "remote token revocation failed")
		}
	}
	if err := m.persist(session{}); err != nil {
		m.logg.Error(ctx, "could not clear persisted session", err)
	}
	m.logg.Info(ctx, "logged out")

	if wasLive {
		for _, fn := range subs {
			fn(false)
		}
	}
}

func (m *Manager) subscribersLocked() []func(bool) {
	out := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}

func (m *Manager) restore() session {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return session{}
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return session{}
	}
	return s
}

func (m *Manager) persist(s session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "encoding session")
	}
	if err := cartfile.WriteFileAtomic(m.path, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "writing session file")
	}
	return nil
}
