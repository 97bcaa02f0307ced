package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/shared"
	"golang.org/x/oauth2"
)

// TokenKey is the name the token is stored under (cookie name, session key).
const TokenKey = "authentication_token"

// Session is a decoded, unexpired token.
type Session struct {
	Token  string
	Claims *Claims
}

// Username is the token subject.
func (s *Session) Username() string { return s.Claims.Subject }

// Role is the role claim, upper-cased. Tokens without one are plain users.
func (s *Session) Role() string {
	if s.Claims.Role == "" {
		return "USER"
	}
	return strings.TrimPrefix(strings.ToUpper(s.Claims.Role), "ROLE_")
}

func (s *Session) IsAdmin() bool { return s.Role() == "ADMIN" }

func (s *Session) ExpiresAt() time.Time { return s.Claims.Expiry() }

// Manager drives the login state machine over a [Store].
type Manager struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// ManagerOpts configures a Manager. Now defaults to time.Now.
type ManagerOpts struct {
	Store  Store
	Logger *log.Logger
	Now    func() time.Time
}

func NewManager(opts ManagerOpts) *Manager {
	if opts.Store == nil {
		opts.Store = NewMemoryStore("")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{store: opts.Store, logger: opts.Logger, now: opts.Now}
}

// Login stores token after checking that it decodes and has not expired.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Expired(m.now()) {
		return nil, fmt.Errorf("%w: token already expired", shared.ErrInvalidToken)
	}
	if err := m.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Debug("session stored", "user", claims.Subject, "expires", claims.Expiry())
	return &Session{Token: token, Claims: claims}, nil
}

// Current returns the stored session.
//
// A missing token is [shared.ErrNotAuthenticated]. An expired or undecodable
// token is cleared from the store and reported as [shared.ErrSessionExpired].
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	token, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	claims, err := Decode(token)
	if err == nil && !claims.Expired(m.now()) {
		return &Session{Token: token, Claims: claims}, nil
	}

	if clearErr := m.store.Clear(ctx); clearErr != nil {
		m.logger.Warn("failed to clear stale session", "error", clearErr)
	}
	return nil, shared.ErrSessionExpired
}

// Authenticated is the boolean form of [Manager.Current].
func (m *Manager) Authenticated(ctx context.Context) bool {
	_, err := m.Current(ctx)
	return err == nil
}

// Invalidate drops the stored token. Called on logout and on any 401.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.logger.Debug("session cleared")
	return nil
}

// Token implements [oauth2.TokenSource] so the stored JWT can be attached
// with [oauth2.Transport].
func (m *Manager) Token() (*oauth2.Token, error) {
	return m.TokenSource(context.Background()).Token()
}

// TokenSource binds ctx to the store lookups.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	s, err := t.m.Current(t.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer", Expiry: s.ExpiresAt()}, nil
}
