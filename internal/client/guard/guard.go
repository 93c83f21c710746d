// Package guard decides whether a navigation target is permitted for the
// current authentication state and where to redirect otherwise.
package guard

import (
	"sync"

	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
)

// State of the guard's state machine.
//
// Initializing is the startup state: nothing is routable until the persisted
// session has been restored (or found absent), so a user with a valid saved
// session never sees a login flash.
type State string

const (
	StateInitializing    State = "initializing"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Route is a navigation target, named like the web app's paths.
type Route string

const (
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
	RouteReset    Route = "/reset-password"

	// RouteHome is the default authenticated landing route.
	RouteHome Route = "/projects"

	RouteManuscript Route = "/manuscript"
	RouteElements   Route = "/elements"
)

// publicRoutes are reachable without a session.
var publicRoutes = map[Route]struct{}{
	RouteLogin:    {},
	RouteRegister: {},
	RouteReset:    {},
}

// Decision is the guard's answer to one navigation request.
type Decision struct {
	Allowed bool
	// RedirectTo is set when the navigation is intercepted. Empty with
	// Allowed=false means "hold": the guard is still initializing.
	RedirectTo Route
}

// SessionFn reports the current session, nil when absent or expired. The
// guard re-derives "authenticated" from it on every navigation instead of
// caching a boolean, so expiry is observed at the next guarded step.
type SessionFn func() *models.Session

// Guard is the navigation state machine. One instance per process.
type Guard struct {
	session SessionFn

	mu      sync.Mutex
	state   State
	pending Route
}

// New returns a Guard in the Initializing state.
func New(session SessionFn) *Guard {
	return &Guard{session: session, state: StateInitializing}
}

// State returns the current state, refreshed against the session.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshLocked()
	return g.state
}

// FinishRestore moves the guard out of Initializing once RestoreSession has
// resolved, whichever way it went.
func (g *Guard) FinishRestore() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateInitializing {
		return
	}
	if g.session() != nil {
		g.state = StateAuthenticated
	} else {
		g.state = StateUnauthenticated
	}
}

// SignedIn records a successful sign-in or sign-up.
func (g *Guard) SignedIn() {
	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()
}

// SignedOut records a sign-out. The remembered route, if any, is dropped:
// it belonged to the previous user.
func (g *Guard) SignedOut() {
	g.mu.Lock()
	g.state = StateUnauthenticated
	g.pending = ""
	g.mu.Unlock()
}

// Navigate applies the guard rules to one navigation request.
//
//   - Initializing: everything is held (no redirect, no access).
//   - Unauthenticated: protected targets redirect to the login route and
//     the target is remembered for the post-login redirect; public targets
//     pass.
//   - Authenticated: the auth routes redirect to the landing route;
//     everything else passes.
func (g *Guard) Navigate(target Route) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshLocked()

	switch g.state {
	case StateInitializing:
		return Decision{Allowed: false}

	case StateUnauthenticated:
		if _, public := publicRoutes[target]; public {
			return Decision{Allowed: true}
		}
		// latest request wins
		g.pending = target
		return Decision{Allowed: false, RedirectTo: RouteLogin}

	default: // StateAuthenticated
		if _, public := publicRoutes[target]; public {
			return Decision{Allowed: false, RedirectTo: RouteHome}
		}
		return Decision{Allowed: true}
	}
}

// ConsumePending returns the route requested before the login interception,
// or fallback if none was remembered, and clears the slot.
func (g *Guard) ConsumePending(fallback Route) Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.pending
	g.pending = ""
	if r == "" {
		return fallback
	}
	return r
}

// refreshLocked demotes Authenticated to Unauthenticated when the session
// has expired or disappeared. Initializing is never left implicitly.
func (g *Guard) refreshLocked() {
	if g.state == StateAuthenticated && g.session() == nil {
		g.state = StateUnauthenticated
	}
}
