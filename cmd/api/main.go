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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/leadflow/backend/internal/auth"
	"github.com/leadflow/backend/internal/config"
	"github.com/leadflow/backend/internal/lists"
	"github.com/leadflow/backend/internal/metrics"
	"github.com/leadflow/backend/internal/registry"
	"github.com/leadflow/backend/internal/repository"
	"github.com/leadflow/backend/internal/router"
	"github.com/leadflow/backend/internal/services"
	"github.com/leadflow/backend/internal/uploads"
)

// purgeInterval is how often the retention sweep looks for expired uploads.
const purgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure it is running and DATABASE_URL is correct", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	if err := repository.Migrate(ctx, pool); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Migrations applied")

	store, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		slog.Error("Upload directory unavailable", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	// Upload retention worker
	workers := river.NewWorkers()
	river.AddWorker(workers, uploads.NewPurgeWorker(store, logger))
	riverCfg := &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
		Logger:  logger,
	}
	if cfg.UploadRetention > 0 {
		riverCfg.PeriodicJobs = []*river.PeriodicJob{uploads.PeriodicPurge(cfg.UploadRetention, purgeInterval)}
	}
	riverClient, err := river.NewClient(riverpgxv5.New(pool), riverCfg)
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Auth
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authSvc, logger)

	// Agents
	agentRepo := repository.NewAgentRepo(pool)
	registrySvc := registry.NewService(agentRepo)
	registryHandler := registry.NewHandler(registrySvc, logger)

	// Lists
	taskRepo := repository.NewTaskRepo(pool)
	distributor := services.NewDistributor(agentRepo, services.NewBatchWriter(taskRepo, cfg.WriteConcurrency), logger)
	listsSvc := lists.NewService(taskRepo, store, distributor, m, logger)
	listsHandler := lists.NewHandler(listsSvc, store, cfg.MaxUploadBytes, m, logger)

	uploadsHandler := uploads.NewHandler(store, cfg.MaxUploadBytes, m, logger)

	api := router.New(router.Handlers{
		Auth:     authHandler,
		Agents:   registryHandler,
		Lists:    listsHandler,
		Uploads:  uploadsHandler,
		Tokens:   authSvc,
		DB:       pool,
		Gatherer: reg,
		Logger:   logger,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(api)

	// Start River client (runs the retention sweep)
	if err := riverClient.Start(ctx); err != nil {
		slog.Error("River client failed to start", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr, "env", cfg.Env)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River shutdown failed", "error", err)
	}
}
