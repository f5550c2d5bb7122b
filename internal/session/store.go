// Package session is the single authority for "is the caller authenticated,
// and as whom". All mutation happens inside the Store under one lock; guards,
// interceptors and views only ever observe read-only derived values or a
// snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api"
	"github.com/wttnguyen/draftolio/internal/api/apierror"
	"github.com/wttnguyen/draftolio/internal/notify"
	"github.com/wttnguyen/draftolio/internal/routes"
)

// ErrLoginRequired signals that the session is gone and the caller must
// navigate to the login route.
var ErrLoginRequired = errors.New("login required")

// tokenExpiryWindow is how close to expiry the access token may get before
// the client tries to refresh it ahead of time.
const tokenExpiryWindow = 5 * time.Minute

const unknownUserName = "Unknown User"

// Session is the client-local record of the current authentication state.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	CurrentUser   *api.User `json:"currentUser,omitempty"`
	Loading       bool      `json:"loading"`
	LastError     string    `json:"lastError,omitempty"`
}

// Backend is the slice of the API client the store needs.
type Backend interface {
	Status(ctx context.Context) (api.AuthStatus, error)
	Me(ctx context.Context) (*api.User, error)
	LoginURL(ctx context.Context, redirect string) (string, error)
	Logout(ctx context.Context) (*api.LogoutResponse, error)
	Refresh(ctx context.Context) (*api.RefreshResponse, error)
}

// flight is one in-flight coalesced backend call. Concurrent callers wait on
// done and share the result instead of racing their own requests.
type flight struct {
	done   chan struct{}
	status api.AuthStatus
	err    error
}

// Store owns the Session. Constructed explicitly and injected; there is no
// package-level instance.
type Store struct {
	backend  Backend
	notifier *notify.Center
	logger   zerolog.Logger
	now      func() time.Time

	mu            sync.Mutex
	sess          Session
	expiresAt     time.Time // access token expiry; zero when unknown
	statusFlight  *flight
	refreshFlight *flight
}

// NewStore creates a session store starting from the unauthenticated state.
func NewStore(backend Backend, notifier *notify.Center, logger zerolog.Logger) *Store {
	return &Store{
		backend:  backend,
		notifier: notifier,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      time.Now,
	}
}

// CheckStatus issues the lightweight auth probe, updating the session from
// the result. Concurrent invocations coalesce onto a single backend request;
// every caller observes that request's outcome.
func (s *Store) CheckStatus(ctx context.Context) (api.AuthStatus, error) {
	s.mu.Lock()
	if f := s.statusFlight; f != nil {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.status, f.err
		case <-ctx.Done():
			return api.AuthStatus{}, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	s.statusFlight = f
	s.sess.Loading = true
	s.mu.Unlock()

	status, err := s.backend.Status(ctx)

	s.mu.Lock()
	s.statusFlight = nil
	s.sess.Loading = false
	if err != nil {
		s.sess.Authenticated = false
		s.sess.CurrentUser = nil
		s.sess.LastError = apierror.UserMessage(err)
	} else {
		s.sess.Authenticated = status.Authenticated
		s.sess.LastError = ""
		if !status.Authenticated {
			s.sess.CurrentUser = nil
		}
	}
	needUser := err == nil && status.Authenticated
	f.status, f.err = status, err
	s.mu.Unlock()
	close(f.done)

	if err != nil {
		s.logger.Warn().Err(err).Msg("Auth status check failed")
		return status, err
	}

	if needUser {
		if _, uerr := s.FetchCurrentUser(ctx); uerr != nil {
			s.logger.Warn().Err(uerr).Msg("User fetch after status check failed")
		}
	}
	return status, nil
}

// FetchCurrentUser fetches the full profile, replacing the stored user
// wholesale and reconciling the authenticated flag from the fetched record.
func (s *Store) FetchCurrentUser(ctx context.Context) (*api.User, error) {
	user, err := s.backend.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.sess.CurrentUser = nil
		s.sess.Authenticated = false
		s.sess.LastError = apierror.UserMessage(err)
		return nil, err
	}

	s.sess.CurrentUser = user
	s.sess.Authenticated = user.AuthInfo.Authenticated
	s.sess.LastError = ""
	if user.AuthInfo.AccessTokenExpiresAt != nil {
		s.expiresAt = *user.AuthInfo.AccessTokenExpiresAt
	}
	return user, nil
}

// Login asks the backend for the OAuth authorization URL and hands it back
// for the caller to navigate to. The navigation is a page-unloading side
// effect: nothing comes back through this store once it happens.
func (s *Store) Login(ctx context.Context, redirect string) (string, error) {
	s.mu.Lock()
	s.sess.Loading = true
	s.mu.Unlock()

	authURL, err := s.backend.LoginURL(ctx, redirect)

	s.mu.Lock()
	s.sess.Loading = false
	if err != nil {
		s.sess.LastError = apierror.UserMessage(err)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to initiate login")
		s.notifier.Push(notify.SeverityError, "Failed to initiate sign-in")
		return "", err
	}
	return authURL, nil
}

// Logout terminates the backend session. Local state is cleared whether or
// not the backend call succeeds: logout fails open to logged-out, never to
// logged-in. The returned route is where the caller navigates next — always
// the login route, backend failure or not.
func (s *Store) Logout(ctx context.Context) (string, error) {
	_, err := s.backend.Logout(ctx)

	s.mu.Lock()
	s.sess.Authenticated = false
	s.sess.CurrentUser = nil
	s.expiresAt = time.Time{}
	if err != nil {
		s.sess.LastError = apierror.UserMessage(err)
	} else {
		s.sess.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Msg("Backend logout failed, local session cleared anyway")
		s.notifier.Push(notify.SeverityWarn, "Signed out locally; the server could not be reached")
		return routes.Login, nil
	}

	s.notifier.Push(notify.SeveritySuccess, "Signed out")
	return routes.Login, nil
}

// RefreshToken exchanges the refresh token for a new access token. A 401
// means the session is unrecoverable: it is cleared and the returned error
// wraps ErrLoginRequired. Other failures surface without clearing the
// session. Concurrent refreshes coalesce onto one backend call.
func (s *Store) RefreshToken(ctx context.Context) error {
	s.mu.Lock()
	if f := s.refreshFlight; f != nil {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	s.refreshFlight = f
	s.mu.Unlock()

	resp, err := s.backend.Refresh(ctx)

	s.mu.Lock()
	s.refreshFlight = nil
	switch {
	case err == nil:
		s.expiresAt = resp.ExpiresAt
		s.sess.LastError = ""
	case apierror.IsUnauthorized(err):
		s.sess.Authenticated = false
		s.sess.CurrentUser = nil
		s.expiresAt = time.Time{}
		s.sess.LastError = apierror.UserMessage(err)
		err = fmt.Errorf("%w: %w", ErrLoginRequired, err)
	default:
		s.sess.LastError = apierror.UserMessage(err)
	}
	f.err = err
	s.mu.Unlock()
	close(f.done)

	if err != nil {
		s.logger.Warn().Err(err).Msg("Token refresh failed")
		return err
	}

	if _, uerr := s.FetchCurrentUser(ctx); uerr != nil {
		s.logger.Warn().Err(uerr).Msg("User fetch after refresh failed")
	}
	return nil
}

// HandleAuthError is the central classifier for failed authenticated calls:
// 401 clears the session and flags a login redirect, 403 surfaces "access
// denied" with the session kept, status 0 surfaces a connectivity message,
// everything else surfaces the server's message or a generic fallback.
func (s *Store) HandleAuthError(err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, ErrLoginRequired) || apierror.IsUnauthorized(err):
		s.mu.Lock()
		s.sess.Authenticated = false
		s.sess.CurrentUser = nil
		s.expiresAt = time.Time{}
		s.sess.LastError = apierror.FallbackMessage(401)
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("Authentication failure, session cleared")
		s.notifier.Push(notify.SeverityWarn, "Your session has expired - please sign in again")
	case apierror.IsForbidden(err):
		s.setLastError(apierror.FallbackMessage(403))
		s.logger.Warn().Err(err).Msg("Access forbidden")
		s.notifier.Push(notify.SeverityError, "Access denied")
	case apierror.IsNetwork(err):
		s.setLastError(apierror.FallbackMessage(0))
		s.logger.Error().Err(err).Msg("Network error")
		s.notifier.Push(notify.SeverityError, "Network error - check your connection")
	default:
		msg := apierror.UserMessage(err)
		s.setLastError(msg)
		s.logger.Error().Err(err).Msg("API error")
		s.notifier.Push(notify.SeverityError, msg)
	}
}

// IsAuthenticated reports the current authenticated flag.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Authenticated
}

// DisplayName resolves a name for the current user, falling back from the
// display name to the subject to a placeholder.
func (s *Store) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.sess.CurrentUser
	if user == nil {
		return unknownUserName
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.Subject != "" {
		return user.Subject
	}
	return unknownUserName
}

// IsTokenExpiringSoon reports whether the access token expires within the
// next five minutes. Unknown expiry reads as not expiring.
func (s *Store) IsTokenExpiringSoon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiresAt.IsZero() {
		return false
	}
	return !s.expiresAt.After(s.now().Add(tokenExpiryWindow))
}

// Snapshot returns a copy of the current session. The returned user is a
// copy; mutating it cannot reach store state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.sess
	if s.sess.CurrentUser != nil {
		u := *s.sess.CurrentUser
		out.CurrentUser = &u
	}
	return out
}

func (s *Store) setLastError(msg string) {
	s.mu.Lock()
	s.sess.LastError = msg
	s.mu.Unlock()
}
