// Package cli implements the interactive Lorekeeper client: a command loop
// whose "screens" are routes mediated by the navigation guard.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/lorekeeper/internal/client/api"
	"github.com/dmitrijs2005/lorekeeper/internal/client/config"
	"github.com/dmitrijs2005/lorekeeper/internal/client/guard"
	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
	"github.com/dmitrijs2005/lorekeeper/internal/client/services"
	"github.com/dmitrijs2005/lorekeeper/internal/client/status"
	"github.com/dmitrijs2005/lorekeeper/internal/client/store"
	"github.com/dmitrijs2005/lorekeeper/internal/logging"
)

// Fixed user-visible copy. Backend error text is never surfaced.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgSomethingWrong     = "Something went wrong. Please try again."
	msgEmailTaken         = "An account with this email already exists"
	msgBusy               = "Still working on the previous request..."
	msgResetSent          = "If an account exists for that address, a reset link has been sent."
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	auth    services.AuthService
	project services.ProjectService
	guard   *guard.Guard
	tracker *status.Tracker

	reader *bufio.Reader
	out    io.Writer

	route guard.Route
}

// NewApp wires the client: local database, API client, services, guard, and
// status tracker.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	a.auth = services.NewAuthService(apiClient, db, services.Hooks{
		AccountCreated: func(s models.Session) {
			logger.Info(ctx, "account created", "email", s.Email)
		},
		SessionEnded: func() {
			logger.Info(ctx, "session ended")
		},
	})
	a.project = services.NewProjectService(apiClient, db)
	a.guard = guard.New(a.auth.Current)
	a.tracker = status.NewTracker(a.auth, logger)

	return a, nil
}

// Run restores the session, resolves the guard out of its initializing
// state, starts the connectivity watcher, and enters the command loop.
// The session restore completes before the first routing decision.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.auth.Close(ctx) }()

	if _, err := a.auth.RestoreSession(ctx); err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err)
	}
	a.guard.FinishRestore()

	if a.guard.State() == guard.StateAuthenticated {
		a.route = guard.RouteHome
		go a.refreshVerification(ctx)
	} else {
		a.route = guard.RouteLogin
	}

	go a.tracker.Run(ctx, a.config.OnlineCheckInterval)

	a.runREPL(ctx)
}

// navigate routes through the guard and follows a redirect if one is
// issued. Returns the route the app ended up on.
func (a *App) navigate(target guard.Route) guard.Route {
	d := a.guard.Navigate(target)
	switch {
	case d.Allowed:
		a.route = target
	case d.RedirectTo != "":
		a.printf("Redirected to %s", d.RedirectTo)
		a.route = d.RedirectTo
	default:
		a.printf("Still loading, try again in a moment")
	}
	return a.route
}

// refreshVerification nudges the advisory email-verification flag without
// blocking whatever the user is doing.
func (a *App) refreshVerification(ctx context.Context) {
	if err := a.auth.RefreshVerification(ctx); err != nil {
		a.logger.Debug(ctx, "verification refresh failed", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.Current() != nil
}
