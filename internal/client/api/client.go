// Package api defines the client-side gateway to the Lorekeeper backend:
// an interface describing the remote operations the application needs and an
// HTTP/JSON implementation of it.
package api

import (
	"context"
	"time"
)

// AuthResult is the backend's answer to a successful sign-in or sign-up.
type AuthResult struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Project is the wire representation of a worldbuilding project.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client describes the remote operations used by the application services.
//
// Contract:
//   - SignIn / SignUp: authenticate or create an account; on success the
//     implementation remembers the returned token for subsequent calls.
//   - SignOut: invalidate the current token server-side and forget it.
//   - RequestPasswordReset: always succeeds for well-formed requests,
//     whether or not the email is registered.
//   - VerificationStatus: report whether the account email is confirmed.
//   - Ping: check server liveness.
//
// All methods must honor context cancellation/timeouts. Implementations do
// not retry: transient failures surface immediately as ErrUnavailable.
type Client interface {
	Close() error
	SignUp(ctx context.Context, email string, password []byte) (*AuthResult, error)
	SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*AuthResult, error)
	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerificationStatus(ctx context.Context) (bool, error)
	Ping(ctx context.Context) error

	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, name, genre string) (*Project, error)
	DeleteProject(ctx context.Context, id string) error

	// SetToken installs the session token to use on protected calls,
	// e.g. after a session is restored from the local store.
	SetToken(token string)
}
