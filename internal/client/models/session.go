// Package models defines client-side data structures for the Lorekeeper CLI.
package models

import "time"

// Session is the authenticated-identity record held after a successful
// sign-in or sign-up. It is owned exclusively by the auth service: created on
// successful authentication, destroyed on sign-out or expiry, and persisted
// to the local store only when RememberMe is set.
type Session struct {
	UserID       string             `json:"user_id"`
	Email        string             `json:"email"`
	Token        string             `json:"token"`
	ExpiresAt    time.Time          `json:"expires_at"`
	RememberMe   bool               `json:"remember_me"`
	Verification VerificationStatus `json:"verification"`
}

// VerificationStatus reflects whether the user's email address has been
// confirmed. Advisory only: a false value never gates feature access.
type VerificationStatus struct {
	EmailVerified bool      `json:"email_verified"`
	LastChecked   time.Time `json:"last_checked"`
}

// Active reports whether the session is usable at the given instant.
// A session with ExpiresAt in the past is treated as absent everywhere;
// callers must never derive "authenticated" from token presence alone.
func (s *Session) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Token != "" && s.ExpiresAt.After(now)
}
