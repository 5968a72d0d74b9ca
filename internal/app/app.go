package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"go-user-service/internal/auth"
	"go-user-service/internal/config"
	"go-user-service/internal/database"
	"go-user-service/internal/event"
	"go-user-service/internal/handler"
	"go-user-service/internal/middleware"
	"go-user-service/internal/notify"
	"go-user-service/internal/repository"
	"go-user-service/internal/router"
	"go-user-service/internal/service"
)

// storeHandle is the lifecycle side of a user store backend.
type storeHandle interface {
	Health(ctx context.Context) error
	Close()
}

type App struct {
	cfg          *config.Config
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	users, handle, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a, err := newWithStore(ctx, cfg, users, handle)
	if err != nil {
		handle.Close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (service.UserStore, storeHandle, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return repository.NewSQLiteUserRepository(db.DB), db, nil

	default:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		return repository.NewUserRepository(db.Pool), db, nil
	}
}

func newWithStore(ctx context.Context, cfg *config.Config, users service.UserStore, handle storeHandle) (*App, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	bus := event.NewBus()
	notifyCtx, stopNotifier := context.WithCancel(context.Background())
	notifierDone := notify.NewNotifier(bus, welcomeSender(cfg)).Start(notifyCtx)

	authService := service.NewAuthService(users, hasher, tokens, bus)
	userService := service.NewUserService(users, hasher, bus)

	if cfg.FirstSuperuserEmail != "" {
		if _, err := userService.EnsureSuperuser(ctx, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword); err != nil {
			stopNotifier()
			return nil, fmt.Errorf("failed to seed first superuser: %w", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(authService, handler.WriteError)
	appRouter := router.New(cfg,
		authMiddleware,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewHealthHandler(handle),
	)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:    cfg,
		server: server,
		cleanupFuncs: []func(){
			func() {
				stopNotifier()
				<-notifierDone
			},
			handle.Close,
		},
	}, nil
}

func welcomeSender(cfg *config.Config) notify.Sender {
	if cfg.SMTPHost == "" {
		return notify.LogSender{}
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailsFrom,
	})
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until SIGINT/SIGTERM or ctx is cancelled, then drains in-flight
// requests and releases the store.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr, "driver", a.cfg.DBDriver)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.Close()

	if runErr == nil {
		slog.Info("server stopped")
	}
	return runErr
}

// Close releases background workers and the store. It is safe to call once.
func (a *App) Close() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
	a.cleanupFuncs = nil
}
