// Package services contains application services for the Lorekeeper client.
// This file defines the auth service: sign-in, sign-up, sign-out, password
// reset, session restore, and housekeeping of the persisted session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/client/api"
	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
	"github.com/dmitrijs2005/lorekeeper/internal/client/repositories/sessions"
)

// ErrSubmitInFlight is returned when a sign-in/sign-up/reset is attempted
// while another one has not finished yet. The caller should not queue the
// attempt; the user retries once the pending request resolves.
var ErrSubmitInFlight = errors.New("another request is already in flight")

// Hooks are optional callbacks fired on session lifecycle events. Nil
// callbacks are skipped. They run synchronously on the calling goroutine, so
// keep them cheap.
type Hooks struct {
	AccountCreated func(s models.Session)
	SessionEnded   func()
}

// AuthService owns the session: it is created here on successful
// authentication, destroyed here on sign-out or expiry, and no other
// component mutates it.
//
// Contract:
//   - SignIn: authenticate; persist the session iff rememberMe.
//   - SignUp: create an account and sign in; verification mail is the
//     backend's fire-and-forget concern and is never waited on.
//   - SignOut: drop the in-memory session and any persisted copy.
//   - RequestPasswordReset: success-shaped for any well-formed email.
//   - RestoreSession: called once at process start, before the first
//     routing decision; discards expired persisted sessions.
//   - RefreshVerification: opportunistic, advisory; failures never block.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*models.Session, error)
	SignUp(ctx context.Context, email string, password []byte) (*models.Session, error)
	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	RestoreSession(ctx context.Context) (*models.Session, error)
	RefreshVerification(ctx context.Context) error
	Current() *models.Session
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and a
// local SQL database for the persisted session.
type authService struct {
	client api.Client
	db     *sql.DB
	hooks  Hooks

	inFlight atomic.Bool

	mu      sync.Mutex
	session *models.Session

	nowFn func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client api.Client, db *sql.DB, hooks Hooks) AuthService {
	return &authService{client: client, db: db, hooks: hooks, nowFn: time.Now}
}

func (a *authService) getSessionRepo() sessions.Repository {
	return sessions.NewSQLiteRepository(a.db)
}

// beginSubmit rejects re-entrant submits: while one auth request is pending
// there is exactly one network call in flight.
func (a *authService) beginSubmit() error {
	if !a.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	return nil
}

func (a *authService) endSubmit() {
	a.inFlight.Store(false)
}

// SignIn authenticates against the backend. On success the session is held
// in memory and, iff rememberMe, persisted locally; a previously persisted
// session from an earlier login is removed otherwise. On failure nothing is
// created and nothing is written.
func (a *authService) SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*models.Session, error) {
	if err := a.beginSubmit(); err != nil {
		return nil, err
	}
	defer a.endSubmit()

	res, err := a.client.SignIn(ctx, email, password, rememberMe)
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		UserID:     res.UserID,
		Email:      res.Email,
		Token:      res.Token,
		ExpiresAt:  res.ExpiresAt,
		RememberMe: rememberMe,
	}

	repo := a.getSessionRepo()
	if rememberMe {
		if err := repo.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("session saving error: %w", err)
		}
	} else {
		if err := repo.Delete(ctx); err != nil {
			return nil, fmt.Errorf("session cleanup error: %w", err)
		}
	}

	a.setSession(s)
	return copySession(s), nil
}

// SignUp creates an account and signs the new user in. The session is not
// persisted: remember-me is a sign-in choice. The backend sends the
// verification email on its own; AccountCreated fires without waiting on it.
func (a *authService) SignUp(ctx context.Context, email string, password []byte) (*models.Session, error) {
	if err := a.beginSubmit(); err != nil {
		return nil, err
	}
	defer a.endSubmit()

	res, err := a.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		UserID:    res.UserID,
		Email:     res.Email,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}

	a.setSession(s)

	if a.hooks.AccountCreated != nil {
		a.hooks.AccountCreated(*s)
	}
	return copySession(s), nil
}

// SignOut destroys the in-memory session and any persisted copy. The remote
// token invalidation is best effort: an unreachable backend must not keep
// the user signed in locally.
func (a *authService) SignOut(ctx context.Context) error {
	a.mu.Lock()
	had := a.session != nil
	a.session = nil
	a.mu.Unlock()

	if err := a.getSessionRepo().Delete(ctx); err != nil {
		return fmt.Errorf("session cleanup error: %w", err)
	}

	if had {
		_ = a.client.SignOut(ctx)
	}
	a.client.SetToken("")

	if had && a.hooks.SessionEnded != nil {
		a.hooks.SessionEnded()
	}
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link. The result is
// success-shaped whether or not the email is registered, so account
// existence cannot be probed from here. Only transport failures surface.
func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := a.beginSubmit(); err != nil {
		return err
	}
	defer a.endSubmit()

	err := a.client.RequestPasswordReset(ctx, email)
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}
	// anything the backend rejected is normalized away
	return nil
}

// RestoreSession reads the persisted session, if any, and promotes it to the
// in-memory session. An expired persisted session is treated as absent and
// its row is removed.
func (a *authService) RestoreSession(ctx context.Context) (*models.Session, error) {
	repo := a.getSessionRepo()

	s, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("session loading error: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if !s.Active(a.nowFn()) {
		if err := repo.Delete(ctx); err != nil {
			return nil, fmt.Errorf("stale session cleanup error: %w", err)
		}
		return nil, nil
	}

	a.setSession(s)
	a.client.SetToken(s.Token)
	return copySession(s), nil
}

// RefreshVerification re-checks the email-verification flag. Advisory only:
// callers run it off the hot path and ignore failures beyond logging.
func (a *authService) RefreshVerification(ctx context.Context) error {
	a.mu.Lock()
	s := a.session
	a.mu.Unlock()
	if s == nil {
		return nil
	}

	verified, err := a.client.VerificationStatus(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	var toSave *models.Session
	if a.session != nil {
		a.session.Verification = models.VerificationStatus{
			EmailVerified: verified,
			LastChecked:   a.nowFn(),
		}
		if a.session.RememberMe {
			toSave = copySession(a.session)
		}
	}
	a.mu.Unlock()

	if toSave != nil {
		if err := a.getSessionRepo().Save(ctx, toSave); err != nil {
			return fmt.Errorf("session saving error: %w", err)
		}
	}
	return nil
}

// Current returns a copy of the in-memory session, or nil. A session past
// its expiry is reported as absent.
func (a *authService) Current() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.session.Active(a.nowFn()) {
		return nil
	}
	return copySession(a.session)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) setSession(s *models.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
