// Package server wires the Lorekeeper backend: database, services, HTTP
// API, and graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/logging"
	"github.com/dmitrijs2005/lorekeeper/internal/server/config"
	"github.com/dmitrijs2005/lorekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/lorekeeper/internal/server/mailer"
	"github.com/dmitrijs2005/lorekeeper/internal/server/projects"
	"github.com/dmitrijs2005/lorekeeper/internal/server/store"
	"github.com/dmitrijs2005/lorekeeper/internal/server/users"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	srv    *http.Server
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.JWTSecret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	db, err := store.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var m mailer.Mailer
	if c.SMTPHost != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			From:     c.SMTPFrom,
			Password: c.SMTPPassword,
			BaseURL:  c.PublicURL,
		})
	} else {
		m = mailer.NewLogMailer(logger)
	}

	us := users.NewService(db, m, logger, users.ServiceOptions{
		JWTSecret:          []byte(c.JWTSecret),
		TokenValidity:      c.TokenValidity,
		RememberMeValidity: c.RememberMeValidity,
		ResetValidity:      c.ResetTokenValidity,
	})
	ps := projects.NewService(db)

	handlers := httpapi.NewHandlers(us, ps, logger, []byte(c.JWTSecret))

	srv := &http.Server{
		Addr:    c.ListenAddr,
		Handler: handlers.Router(),
	}

	return &App{config: c, logger: logger, db: db, srv: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API until the context is cancelled or a signal arrives,
// then drains in-flight requests and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "listening", "addr", app.config.ListenAddr)
		if err := app.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = app.db.Close()
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := app.srv.Shutdown(shutdownCtx)
	if closeErr := app.db.Close(); err == nil {
		err = closeErr
	}
	return err
}
