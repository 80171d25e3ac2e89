// Command tyadmin-server serves the admin session endpoints on top of a shared Redis.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/app.Config for the variables.
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

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/GitHub-GodOne/ty-admin-sub001/internal/app"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := app.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.LogLevel)

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	engineCfg := cfg.EngineConfig()
	engine, err := tyadmin.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithPermissions(permUpstreamRead).
		WithLogger(logger.With("component", "engine")).
		WithAuditSink(tyadmin.NewSlogSink(logger.With("component", "audit"))).
		Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info("engine ready",
		"session_lifetime", report.SessionLifetime,
		"sliding_refresh", report.SlidingRefresh,
		"declared_permissions", report.DeclaredPermissions,
		"upstream_configured", report.UpstreamConfigured,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newServer(engine, logger).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
