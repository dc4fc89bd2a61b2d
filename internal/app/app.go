package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimbox/dimbox/internal/session"
	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/internal/tokenstore/drivers/memory"
	"github.com/dimbox/dimbox/internal/tokenstore/drivers/sqlite"
	"github.com/dimbox/dimbox/internal/web"
	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/slogx"
	"golang.org/x/time/rate"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the token store, the finance client, the session and
// the views.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store   tokenstore.Store
	client  *financesdk.Client
	session *session.Controller

	server *http.Server
	router *web.Router
}

// New creates a new Application with all dependencies initialized. The
// session is hydrated by Run.
func New(cfg Config) (*Application, error) {
	return newWithLogger(cfg, slogx.New(slogx.Config{
		Service: "dimbox",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

func newWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg, logger: logger}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initClient()

	if err := app.initHTTP(); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the views with their middleware chain.
func (app *Application) Handler() http.Handler { return app.router }

// Session returns the session controller.
func (app *Application) Session() *session.Controller { return app.session }

// Run serves the views, hydrates the session from the token store and
// blocks until a shutdown signal or a server error.
func (app *Application) Run() error {
	app.logger.Info("dimbox starting",
		"addr", app.server.Addr,
		"api", app.client.BaseURL(),
		"token_store", app.cfg.TokenStore,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Views answer with a waiting page until this completes.
	go app.session.Init(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.store.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application. The token store is closed
// last so in-flight requests can still persist a refreshed token.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dimbox...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing token store", "error", err)
		return err
	}

	app.logger.Info("dimbox stopped")
	return nil
}

// initStore opens the configured token store and applies migrations.
func (app *Application) initStore() error {
	if app.cfg.TokenStore == StoreMemory {
		app.store = memory.NewStore(app.logger)
		app.logger.Warn("using in-memory token store, sign-ins will not survive a restart")
		return nil
	}

	db, err := sqlite.NewStore(app.cfg.StateFile, app.logger)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply token store migrations: %w", err)
	}

	app.store = db
	app.logger.Info("token store migrations applied successfully", "file", app.cfg.StateFile)
	return nil
}

// initClient builds the finance client and the session on top of it. A
// failed refresh ends the session through the auth-failure hook.
func (app *Application) initClient() {
	app.client = financesdk.NewClient(app.cfg.APIBaseURL, app.store,
		financesdk.WithHTTPClient(&http.Client{Timeout: app.cfg.HTTPTimeout}),
		financesdk.WithLogger(app.logger),
		financesdk.WithUserAgent("dimbox/"+BuildVersion),
		financesdk.WithRateLimit(rate.Limit(app.cfg.APIRateLimit), app.cfg.APIRateBurst),
	)

	app.session = session.New(app.client, app.store, app.logger)
	app.client.OnAuthFailure(app.session.Expire)
}

// initHTTP initializes the router and the server.
func (app *Application) initHTTP() error {
	router, err := web.NewRouter(app.client, app.session, BuildVersion, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load views: %w", err)
	}

	if pinger, ok := app.store.(web.Pinger); ok {
		router.Store = pinger
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
