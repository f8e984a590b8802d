// Package session orchestrates the client-side authentication lifecycle:
// restoring a persisted session, login, registration, logout, and keeping
// the access token fresh ahead of expiry.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// State is the session lifecycle state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateInitializing    State = "initializing"
	StateAuthenticated   State = "authenticated"
	StateRefreshFailed   State = "refresh_failed"
)

// Session is the only component that mutates the current user. Everything
// else reads it through the accessors.
type Session struct {
	api    *client.Client
	tokens token.Store
	clock  *Clock
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	user    *client.User
	loading bool
	lastErr error

	// gen increments on every login, registration and logout. A refresh
	// or background fetch started under an older generation must not
	// touch session state when it lands.
	gen uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New wires a Session to its collaborators and registers the refresh
// hooks so both refresh paths (proactive timer and reactive 401) keep the
// session state and clock consistent.
func New(api *client.Client, tokens token.Store, clock *Clock, opts ...Option) *Session {
	s := &Session{
		api:    api,
		tokens: tokens,
		clock:  clock,
		logger: slog.Default(),
		state:  StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	api.SetRefreshHooks(s.onRefreshSuccess, s.onRefreshFailure)
	return s
}

// CurrentUser returns the signed-in user, or nil.
func (s *Session) CurrentUser() *client.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a login, registration or restore is in
// progress.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last session-changing error, cleared by the next login
// attempt or logout.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// HasRole reports whether the signed-in user holds the given role. False
// when signed out.
func (s *Session) HasRole(role token.Role) bool {
	user := s.CurrentUser()
	if user == nil {
		return false
	}
	return token.NormalizeRole(user.Role) == role
}

// Initialize restores a session from the token store. A valid persisted
// access token yields a provisional user decoded from its payload before
// any network call; the authoritative profile is then fetched in the
// background and merged in if it succeeds. An absent or expired token
// clears the store and leaves the session signed out.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateInitializing
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	access, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.finishInit(gen, nil, StateUnauthenticated)
		return err
	}
	if access == "" || token.IsExpired(access, time.Now()) {
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Warn("clearing stale tokens failed", "error", err)
		}
		s.finishInit(gen, nil, StateUnauthenticated)
		return nil
	}

	claims := token.Decode(access)
	user := provisionalUser(claims)
	s.finishInit(gen, user, StateAuthenticated)
	s.clock.Schedule(access, s.clockDue)

	// Authoritative profile fetch. Non-blocking, failure tolerated: the
	// provisional user stays valid either way.
	go s.upgradeUser(gen)
	return nil
}

// Login exchanges credentials for a session. On failure the session stays
// signed out and the error is also recorded on Err.
func (s *Session) Login(ctx context.Context, email, password string) (*client.User, error) {
	s.beginAttempt()

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.failAttempt(err)
		return nil, err
	}
	return s.adopt(ctx, resp)
}

// Register creates an account and signs in with the issued tokens.
func (s *Session) Register(ctx context.Context, input client.RegisterInput) (*client.User, error) {
	s.beginAttempt()

	resp, err := s.api.Register(ctx, input)
	if err != nil {
		s.failAttempt(err)
		return nil, err
	}
	return s.adopt(ctx, resp)
}

// Refresh forces a token refresh through the shared single-flight gate.
// Failure tears the session down; the caller should return to login.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.api.RefreshAccess(ctx)
	return err
}

// Logout cancels the refresh timer, clears the token store and signs the
// user out. It always succeeds and performs no network call.
func (s *Session) Logout() {
	s.clock.Cancel()
	if err := s.tokens.Clear(context.Background()); err != nil {
		s.logger.Warn("clearing tokens on logout failed", "error", err)
	}

	s.mu.Lock()
	s.gen++
	s.user = nil
	s.lastErr = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()
}

func (s *Session) beginAttempt() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Session) failAttempt(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// adopt installs the token pair and user from a login or registration
// response and arms the refresh timer.
func (s *Session) adopt(ctx context.Context, resp *client.AuthResponse) (*client.User, error) {
	if err := s.tokens.SetTokens(ctx, resp.Access, resp.Refresh); err != nil {
		s.failAttempt(err)
		return nil, err
	}

	user := resp.User
	user.Role = string(token.NormalizeRole(user.Role))

	s.mu.Lock()
	s.gen++
	s.user = &user
	s.loading = false
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.clock.Schedule(resp.Access, s.clockDue)
	return &user, nil
}

func (s *Session) finishInit(gen uint64, user *client.User, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.user = user
	s.state = state
	s.loading = false
}

// upgradeUser replaces the provisional user with the authoritative
// profile. Fetch failure is logged and ignored.
func (s *Session) upgradeUser(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug("authoritative user fetch failed", "error", err)
		return
	}
	user.Role = string(token.NormalizeRole(user.Role))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.user == nil {
		return
	}
	s.user = user
}

// clockDue runs when the proactive timer fires.
func (s *Session) clockDue() {
	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()
	if _, err := s.api.RefreshAccess(ctx); err != nil {
		s.logger.Warn("scheduled token refresh failed", "error", err)
	}
}

// onRefreshSuccess reschedules the timer for the renewed token. Fires for
// both the proactive and the 401-driven refresh path.
func (s *Session) onRefreshSuccess(access string) {
	s.mu.Lock()
	authenticated := s.user != nil
	s.mu.Unlock()
	if authenticated {
		s.clock.Schedule(access, s.clockDue)
	}
}

// onRefreshFailure tears the session down: tokens are gone, the user must
// sign in again. A refresh that lost a race with logout is not a failure
// of the (already ended) session.
func (s *Session) onRefreshFailure(err error) {
	if errors.Is(err, client.ErrSessionEnded) {
		return
	}

	s.clock.Cancel()
	if cerr := s.tokens.Clear(context.Background()); cerr != nil {
		s.logger.Warn("clearing tokens after refresh failure failed", "error", cerr)
	}

	s.mu.Lock()
	s.gen++
	s.user = nil
	s.lastErr = err
	s.state = StateRefreshFailed
	s.mu.Unlock()
}

// provisionalUser derives a user from decoded token claims, used until
// the authoritative fetch lands.
func provisionalUser(claims *token.Claims) *client.User {
	if claims == nil {
		return nil
	}
	id := claims.UserID
	if id == 0 && claims.Subject != "" {
		if parsed, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			id = parsed
		}
	}
	return &client.User{
		ID:        id,
		Email:     claims.Email,
		Role:      string(token.NormalizeRole(claims.Role)),
		CompanyID: claims.CompanyID,
	}
}
