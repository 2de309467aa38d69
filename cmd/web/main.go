package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendanceweb/internal/backend"
	"attendanceweb/internal/config"
	"attendanceweb/internal/session"
	"attendanceweb/internal/status"
	"attendanceweb/internal/store"
	"attendanceweb/internal/web"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	sessions, checks, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger.Named("backend"))

	mode := status.MatchFullDate
	if cfg.LegacyDayMatch {
		mode = status.MatchDayOfMonth
	}

	h, err := web.New(web.Options{
		Sessions:     session.NewManager(client, sessions, logger.Named("session")),
		Backend:      client,
		SigningKey:   cfg.SigningKey,
		CookieSecure: cfg.CookieSecure,
		CalendarMode: mode,
		Checks:       checks,
		Log:          logger,
	})
	if err != nil {
		return err
	}
	r, err := web.NewRouter(h, web.RouterConfig{
		LoginPerMinute: cfg.RateLimitPerMin,
		Release:        cfg.Production(),
		Log:            logger.Named("http"),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting console",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.BackendURL),
			zap.String("sessions", cfg.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down console")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
	return nil
}

// openSessionStore picks the session backend named by SESSION_BACKEND and
// returns the health checks that go with it.
func openSessionStore(ctx context.Context, cfg config.App, logger *zap.Logger) (session.Store, map[string]web.HealthCheck, func(), error) {
	switch cfg.SessionBackend {
	case "memory", "":
		if cfg.Production() {
			logger.Warn("in-memory sessions do not survive a restart")
		}
		return session.NewMemory(), nil, func() {}, nil

	case "redis":
		rdb := store.NewRedis(cfg.RedisAddr)
		if !rdb.Healthy(ctx) {
			logger.Warn("redis not reachable yet", zap.String("addr", cfg.RedisAddr))
		}
		checks := map[string]web.HealthCheck{"redis": rdb.Healthy}
		return session.NewRedis(rdb.Client), checks, func() { _ = rdb.Close() }, nil

	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pg, err := session.NewPostgres(ctx, db.Client)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("prepare session table: %w", err)
		}
		checks := map[string]web.HealthCheck{"db": db.Healthy}
		return pg, checks, func() { _ = db.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
}
