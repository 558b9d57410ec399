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

	httpapi "github.com/openwaterco/agmdesk/internal/portal/http"
	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/internal/portal/store/drivers/sqlite"
	"github.com/openwaterco/agmdesk/pkg/jwtx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portal service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *jwtx.KeySet
	verifier jwtx.Verifier

	// Services
	checkinService     *service.CheckinService
	transferService    *service.TransferService
	undoService        *service.UndoService
	importService      *service.ImportService
	mailerService      *service.MailerService
	shareholderService *service.ShareholderService
	meetingService     *service.MeetingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	stopJWKSRefresh context.CancelFunc
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initVerifier(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("portal starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.stopJWKSRefresh != nil {
		app.stopJWKSRefresh()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initVerifier wires token verification against the external IdP. RS256
// with a JWKS endpoint is the normal mode; a shared HS256 secret is the
// dev fallback when no JWKS URL is configured.
func (app *Application) initVerifier() error {
	if app.cfg.IdPJWKSURL != "" {
		app.keys = jwtx.NewKeySet(app.cfg.IdPJWKSURL)

		ctx, cancel := context.WithCancel(context.Background())
		app.stopJWKSRefresh = cancel

		if err := app.keys.Refresh(ctx); err != nil {
			// The IdP may not be up yet; the refresher retries. Requests
			// fail closed until keys arrive.
			app.logger.Warn("initial JWKS fetch failed", "error", err)
		}
		app.keys.StartRefreshing(ctx, app.cfg.JWKSRefreshInterval, func(err error) {
			app.logger.Error("JWKS refresh failed", "error", err)
		})

		var audience []string
		if app.cfg.IdPAudience != "" {
			audience = []string{app.cfg.IdPAudience}
		}
		app.verifier = jwtx.NewRS256Verifier(app.keys, app.cfg.IdPIssuer, audience)
		app.logger.Info("token verification via IdP JWKS", "jwks_url", app.cfg.IdPJWKSURL)
		return nil
	}

	if app.cfg.DevSecret == "" {
		return errors.New("no IdP configured: set PORTAL_IDP_JWKS_URL or PORTAL_DEV_SECRET")
	}
	if app.cfg.Env == "prod" {
		return errors.New("shared-secret token verification is not allowed in prod")
	}

	app.verifier = jwtx.NewHS256Verifier([]byte(app.cfg.DevSecret), app.cfg.IdPIssuer, nil)
	app.logger.Warn("token verification via shared dev secret")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.checkinService = &service.CheckinService{Store: app.db}
	app.transferService = &service.TransferService{Store: app.db}
	app.undoService = &service.UndoService{
		Store:           app.db,
		AdjustAggregate: app.cfg.UndoAdjustsAggregate,
	}
	app.importService = &service.ImportService{Store: app.db}
	app.mailerService = &service.MailerService{Store: app.db}
	app.shareholderService = &service.ShareholderService{Store: app.db}
	app.meetingService = &service.MeetingService{Store: app.db}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.CheckinService = app.checkinService
	router.TransferService = app.transferService
	router.UndoService = app.undoService
	router.ImportService = app.importService
	router.MailerService = app.mailerService
	router.ShareholderService = app.shareholderService
	router.MeetingService = app.meetingService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
