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

	"github.com/redis/go-redis/v9"

	"github.com/renderauth/renderauth/internal/auth/domain"
	httpapi "github.com/renderauth/renderauth/internal/auth/http"
	"github.com/renderauth/renderauth/internal/auth/service"
	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/internal/auth/store/drivers/sqlite"
	"github.com/renderauth/renderauth/pkg/cryptox"
	"github.com/renderauth/renderauth/pkg/idx"
	"github.com/renderauth/renderauth/pkg/jwtx"
	"github.com/renderauth/renderauth/pkg/slogx"
	"github.com/renderauth/renderauth/pkg/tierstore"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisClient *redis.Client
	resolver    *tierstore.Resolver
	signer      jwtx.Signer
	verifier    jwtx.Verifier

	credentialService   *service.CredentialService
	tokenService        *service.TokenService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. A missing or
// short signing key is a fatal configuration error.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "renderauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	signer, err := jwtx.NewSignerHS256([]byte(cfg.SigningKey))
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY: %w", err)
	}
	app.signer = signer
	app.verifier = jwtx.NewVerifierHS256([]byte(cfg.SigningKey), cfg.Issuer, []string{cfg.Audience})

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initTiers()
	app.initServices()
	app.initHTTP()

	if err := app.seedUser(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
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

// initTiers builds the long-lived tier list: memory always, redis when an
// address is configured. The cookie tier is attached per request by the
// router.
func (app *Application) initTiers() {
	tiers := []tierstore.Tier{tierstore.NewMemoryTier("memory")}

	if app.cfg.RedisAddr != "" {
		app.redisClient = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})

		// The redis TTL caps orphaned entries; double the refresh lifetime
		// keeps a refreshable pair resolvable for its whole window.
		tiers = append(tiers, tierstore.NewRedisTier(
			"redis", app.redisClient, app.cfg.RedisPrefix, 2*app.cfg.RefreshTTL,
		))
		app.logger.Info("redis tier enabled", "addr", app.cfg.RedisAddr)
	}

	app.resolver = tierstore.NewResolver(app.logger, tiers...)
}

func (app *Application) initServices() {
	app.credentialService = &service.CredentialService{Store: app.db}

	app.tokenService = &service.TokenService{
		Signer:     app.signer,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		Audience:   []string{app.cfg.Audience},
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.sessionService = &service.SessionService{Verifier: app.verifier}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.resolver,
		app.logger,
	)

	router.CredentialService = app.credentialService
	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.CookieOpts = tierstore.CookieOptions{
		Secure:   app.cfg.CookieSecure,
		HTTPOnly: true,
		MaxAge:   int(app.cfg.RefreshTTL.Seconds()),
	}
	if app.redisClient != nil {
		client := app.redisClient
		router.TierPing = func(r *http.Request) error {
			return client.Ping(r.Context()).Err()
		}
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// seedUser creates an initial user when the store is empty and seed
// credentials are configured, so a fresh deployment has someone to log in as.
func (app *Application) seedUser() error {
	if app.cfg.SeedEmail == "" || app.cfg.SeedPassword == "" {
		return nil
	}

	ctx := context.Background()
	empty, err := app.db.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check user store: %w", err)
	}
	if !empty {
		return nil
	}

	hash, err := cryptox.HashPassword(app.cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        app.cfg.SeedEmail,
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Roles:        []string{"user", "admin"},
		Active:       true,
	}
	if err := app.db.Users().CreateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	app.logger.Info("seed user created", "email", app.cfg.SeedEmail, "user_id", u.ID)
	return nil
}
