package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"golang.org/x/sync/singleflight"
)

const refreshTimeout = 15 * time.Second

// TokenClient talks to the remote auth endpoints.
type TokenClient interface {
	Login(ctx context.Context, email, password string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Session is the read model of the current sign-in.
type Session struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
}

// Manager owns the access credential shared by the order submission and the
// authenticated feed. Refresh is its only background writer; concurrent
// refresh calls share one request.
type Manager struct {
	mu      sync.RWMutex
	creds   Credentials
	session string
	repo    Repo
	client  TokenClient
	group   singleflight.Group
	logger  aqm.Logger
	now     func() time.Time
}

func NewManager(session string, repo Repo, client TokenClient, logger aqm.Logger) *Manager {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if repo == nil {
		repo = NewMemoryRepo()
	}
	if session == "" {
		session = "default"
	}
	return &Manager{
		creds:   Credentials{Session: session},
		session: session,
		repo:    repo,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

// Start restores persisted credentials.
func (m *Manager) Start(ctx context.Context) error {
	creds, err := m.repo.Load(ctx, m.session)
	if errors.Is(err, ErrCredentialsNotFound) {
		return nil
	}
	if err != nil {
		m.logger.Error("cannot load stored credentials", "session", m.session, "error", err)
		return nil
	}

	m.mu.Lock()
	m.creds = creds
	m.creds.Session = m.session
	m.mu.Unlock()

	m.logger.Info("credentials restored", "session", m.session)
	return nil
}

func (m *Manager) Stop(ctx context.Context) error {
	return nil
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.RefreshToken
}

// Set stores a new token pair. An empty refresh token keeps the current one.
func (m *Manager) Set(ctx context.Context, pair TokenPair) error {
	m.mu.Lock()
	m.creds.AccessToken = NormalizeAccessToken(pair.AccessToken)
	if pair.RefreshToken != "" {
		m.creds.RefreshToken = pair.RefreshToken
	}
	m.creds.UpdatedAt = m.now().UTC()
	creds := m.creds
	m.mu.Unlock()

	return m.repo.Save(ctx, creds)
}

// Clear drops both tokens from memory and from the repo.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.creds = Credentials{Session: m.session}
	m.mu.Unlock()

	return m.repo.Clear(ctx, m.session)
}

// Login exchanges the user credentials for a token pair.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if m.client == nil {
		return ErrUnauthenticated
	}

	pair, err := m.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	return m.Set(ctx, pair)
}

// Logout clears local tokens first, then revokes the refresh token remotely.
func (m *Manager) Logout(ctx context.Context) error {
	refresh := m.RefreshToken()
	if err := m.Clear(ctx); err != nil {
		m.logger.Error("cannot clear stored credentials", "session", m.session, "error", err)
	}

	if refresh == "" || m.client == nil {
		return nil
	}
	return m.client.Logout(ctx, refresh)
}

// Refresh trades the refresh token for a new pair. Concurrent callers share
// one exchange that outlives any single caller's ctx. A rejected exchange
// clears both tokens and returns a RefreshError; a timeout or cancellation
// keeps them.
func (m *Manager) Refresh(ctx context.Context) error {
	ch := m.group.DoChan("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return nil, m.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	refresh := m.RefreshToken()
	if refresh == "" || m.client == nil {
		m.clearAfterFailure(ctx)
		return &RefreshError{Err: ErrMissingRefreshToken}
	}

	pair, err := m.client.RefreshToken(ctx, refresh)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			m.logger.Info("token refresh interrupted", "session", m.session, "error", err)
			return &RefreshError{Err: err}
		}
		m.clearAfterFailure(ctx)
		return &RefreshError{Err: err}
	}

	if err := m.Set(ctx, pair); err != nil {
		m.logger.Error("cannot persist refreshed credentials", "session", m.session, "error", err)
	}

	m.logger.Debug("access token refreshed", "session", m.session)
	return nil
}

func (m *Manager) clearAfterFailure(ctx context.Context) {
	if err := m.Clear(ctx); err != nil {
		m.logger.Error("cannot clear stored credentials", "session", m.session, "error", err)
	}
}

// EnsureFresh refreshes ahead of time when the access token is about to
// expire. A token without an exp claim is used as is.
func (m *Manager) EnsureFresh(ctx context.Context, leeway time.Duration) error {
	token := m.AccessToken()
	if token == "" {
		return ErrUnauthenticated
	}
	if !Expired(token, m.now(), leeway) {
		return nil
	}
	return m.Refresh(ctx)
}

func (m *Manager) Session() Session {
	m.mu.RLock()
	creds := m.creds
	m.mu.RUnlock()

	s := Session{
		Authenticated: creds.AccessToken != "",
		UpdatedAt:     creds.UpdatedAt,
	}
	if exp, ok := ExpiresAt(creds.AccessToken); ok {
		s.ExpiresAt = &exp
		s.Expired = !m.now().Before(exp)
	}
	return s
}
