// Package session holds the authentication state machine of the CLI.
//
// States are Unknown, Authenticated and Unauthenticated. The in-memory
// session and the credential store are always written together: every
// transition that sets or drops the session persists first and only then
// publishes the new state.
//
// Transitions:
//
//	Unknown         -> Authenticated    stored record found (optimistic; verified in background)
//	Unknown         -> Unauthenticated  no stored record, or it is corrupt
//	any             -> Authenticated    Login / Register / FederatedLogin succeeded
//	Authenticated   -> Unauthenticated  Logout, a 401 from any request, or verification rejected
//
// Failed Login / Register / FederatedLogin never change the state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/credentials"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

var ErrNotAuthenticated = errors.New("not authenticated")

const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgGoogleLoginFailed  = "Google login failed"

	DefaultVerifyTimeout = 5 * time.Second
)

// Result is the outcome of a sign-in operation. Error holds a message fit
// for display when Success is false.
type Result struct {
	Success bool
	User    *models.User
	Error   string
}

// Listener is called after every status change, outside the manager lock.
type Listener func(status Status, user *models.User)

type Manager struct {
	api           client.AuthAPI
	store         credentials.Store
	log           logging.Logger
	verifyTimeout time.Duration

	mu        sync.RWMutex
	status    Status
	user      *models.User
	gen       uint64
	listeners []Listener
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithVerifyTimeout bounds the startup verification call.
func WithVerifyTimeout(d time.Duration) Option {
	return func(m *Manager) { m.verifyTimeout = d }
}

func NewManager(api client.AuthAPI, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		log:           logging.Discard(),
		verifyTimeout: DefaultVerifyTimeout,
		status:        Unknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns a copy of the current session record, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Start restores the stored session and, when one exists, verifies it in
// the background. The returned channel is closed once the status is final
// for this startup.
func (m *Manager) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if !m.Restore(ctx) {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		m.Verify(ctx)
	}()
	return done
}

// Restore reads the credential store and leaves Unknown. It reports whether
// a session was found; that session is trusted until Verify says otherwise.
func (m *Manager) Restore(ctx context.Context) bool {
	u, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrCorruptRecord) {
			m.log.Warn(ctx, "dropping unreadable stored session", "error", err)
		} else {
			m.log.Error(ctx, "cannot read stored session", "error", err)
		}
		m.teardown(ctx)
		return false
	}
	if u == nil {
		m.set(Unauthenticated, nil)
		return false
	}

	m.set(Authenticated, u)
	m.log.Info(ctx, "session restored", "user", u.DisplayName())
	return true
}

// Verify checks the current session with the server. Rejection drops the
// session; an unreachable or missing endpoint keeps it.
func (m *Manager) Verify(ctx context.Context) {
	m.mu.RLock()
	cached, gen := m.user.Clone(), m.gen
	m.mu.RUnlock()
	if cached == nil {
		return
	}

	vctx := ctx
	if m.verifyTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, m.verifyTimeout)
		defer cancel()
	}

	resp, err := m.api.Verify(vctx)
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		m.log.Info(ctx, "stored session rejected by server")
		m.expireIf(ctx, gen)
		return
	case err != nil:
		m.log.Warn(ctx, "session verification unavailable, keeping cached session", "error", err)
		return
	case resp == nil:
		return
	case !resp.OK():
		m.log.Info(ctx, "stored session rejected by server", "message", resp.Message)
		m.expireIf(ctx, gen)
		return
	case resp.User == nil:
		return
	}

	confirmed := resp.User
	if confirmed.BearerToken() == "" {
		confirmed.AccessToken = cached.AccessToken
		confirmed.Token = cached.Token
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	if err := m.store.Save(ctx, confirmed); err != nil {
		m.mu.Unlock()
		m.log.Error(ctx, "cannot persist verified session", "error", err)
		return
	}
	m.user = confirmed
	m.gen++
	m.mu.Unlock()
}

func (m *Manager) Login(ctx context.Context, creds models.Credentials) Result {
	if err := creds.Validate(); err != nil {
		return Result{Error: err.Error()}
	}
	resp, err := m.api.Login(ctx, creds)
	return m.establish(ctx, "login", resp, err, msgLoginFailed)
}

func (m *Manager) Register(ctx context.Context, profile models.Registration) Result {
	if err := profile.Validate(); err != nil {
		return Result{Error: err.Error()}
	}
	resp, err := m.api.Register(ctx, profile)
	return m.establish(ctx, "register", resp, err, msgRegistrationFailed)
}

// FederatedLogin exchanges a Google ID token for a session.
func (m *Manager) FederatedLogin(ctx context.Context, externalToken string) Result {
	if externalToken == "" {
		return Result{Error: msgGoogleLoginFailed}
	}
	resp, err := m.api.GoogleLogin(ctx, externalToken)
	return m.establish(ctx, "google login", resp, err, msgGoogleLoginFailed)
}

func (m *Manager) establish(ctx context.Context, op string, resp *client.AuthResponse, err error, fallback string) Result {
	if err != nil {
		m.log.Warn(ctx, op+" failed", "error", err)
		return Result{Error: messageOr(client.Message(err), fallback)}
	}
	if resp == nil {
		return Result{Error: fallback}
	}
	if !resp.OK() || resp.User == nil {
		m.log.Warn(ctx, op+" rejected", "status", resp.Status, "message", resp.Message)
		return Result{Error: messageOr(resp.Message, fallback)}
	}

	u := resp.User
	m.mu.Lock()
	if err := m.store.Save(ctx, u); err != nil {
		m.mu.Unlock()
		m.log.Error(ctx, "cannot persist session", "op", op, "error", err)
		return Result{Error: fallback}
	}
	m.user = u
	m.status = Authenticated
	m.gen++
	listeners := m.listeners
	m.mu.Unlock()

	m.notify(listeners, Authenticated, u)
	m.log.Info(ctx, op+" succeeded", "user", u.DisplayName())
	return Result{Success: true, User: u.Clone()}
}

// Logout asks the server to end the session and then drops it locally no
// matter what the server said.
func (m *Manager) Logout(ctx context.Context) {
	defer m.teardown(ctx)

	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn(ctx, "logout request failed", "error", err)
	}
}

// UpdateUser replaces the session record wholesale. The status is unchanged.
func (m *Manager) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("update user: nil record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Authenticated {
		return ErrNotAuthenticated
	}

	next := u.Clone()
	if err := m.store.Save(ctx, next); err != nil {
		return err
	}
	m.user = next
	m.gen++
	return nil
}

// Expire drops the session after the server rejected it. It reports whether
// a session was active.
func (m *Manager) Expire(ctx context.Context) bool {
	return m.teardown(ctx)
}

func (m *Manager) expireIf(ctx context.Context, gen uint64) {
	m.mu.RLock()
	same := m.gen == gen
	m.mu.RUnlock()
	if same {
		m.teardown(ctx)
	}
}

func (m *Manager) teardown(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "cannot clear stored session", "error", err)
	}
	wasActive := m.status == Authenticated
	changed := m.status != Unauthenticated
	m.user = nil
	m.status = Unauthenticated
	m.gen++
	listeners := m.listeners
	m.mu.Unlock()

	if changed {
		m.notify(listeners, Unauthenticated, nil)
	}
	return wasActive
}

func (m *Manager) set(status Status, u *models.User) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.user = u
	m.gen++
	listeners := m.listeners
	m.mu.Unlock()

	if changed {
		m.notify(listeners, status, u.Clone())
	}
}

func (m *Manager) notify(listeners []Listener, status Status, u *models.User) {
	for _, l := range listeners {
		l(status, u.Clone())
	}
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
