// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

// Command api is the entry point for the Tosho catalog API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) — the remote document store.
//  4. Open the persistent cache tier (embedded Badger, or Redis when configured).
//  5. Run database migrations (idempotent).
//  6. Wire the catalog service and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toshoapp/tosho/internal/api"
	"github.com/toshoapp/tosho/internal/catalog"
	"github.com/toshoapp/tosho/internal/platform/blob"
	"github.com/toshoapp/tosho/internal/platform/config"
	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/internal/platform/docstore"
	"github.com/toshoapp/tosho/internal/platform/middleware"
	"github.com/toshoapp/tosho/internal/platform/migration"
	pgstore "github.com/toshoapp/tosho/internal/platform/postgres"
	redisstore "github.com/toshoapp/tosho/internal/platform/redis"
	"github.com/toshoapp/tosho/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "tosho"))
	slog.SetDefault(log)

	log.Info("[Tosho] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "tosho"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Application-lifetime context for background workers (rate limiter
	// cleanup), cancelled on shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Persistent Cache Tier ──────────────────────────────────────────
	var blobs blob.Store
	var checkBlobCache func() error

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		blobs = blob.NewRedisStore(rdb)
		checkBlobCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	} else {
		badgerStore, err := blob.NewBadgerStore(cfg.CachePath, log)
		must(log, err, "open badger cache")
		blobs = badgerStore
	}
	defer func() {
		log.Info("closing cache store")
		if cerr := blobs.Close(); cerr != nil {
			log.Error("cache close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Verifier ─────────────────────────────────────────────────
	// Optional: without a public key every request runs anonymous and the
	// admin endpoints reject.
	var verifier middleware.TokenVerifier
	if cfg.AuthPubKeyPath != "" {
		v, err := sec.NewVerifier(cfg.AuthPubKeyPath, constants.AuthIssuer)
		must(log, err, "initialize token verifier")
		verifier = v
	} else {
		log.Warn("no auth public key configured, admin endpoints disabled")
	}

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckStore: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckBlobCache: checkBlobCache,
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	store := docstore.NewPostgresStore(pool)
	assembler := catalog.NewAssembler(store, log)
	cache := catalog.NewCache(blobs, log)
	catalogService := catalog.NewService(store, assembler, cache, log)
	catalogHandler := catalog.NewHandler(catalogService, middleware.RequireAdmin(cfg.AdminEmails))

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Catalog:   catalogHandler,
	}

	server := api.NewServer(appCtx, cfg, log, verifier, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
