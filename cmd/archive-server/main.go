// Package main is the entry point for the archive server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	cachememory "github.com/pryanikov/archiveapp/internal/cache/memory"
	cacheredis "github.com/pryanikov/archiveapp/internal/cache/redis"
	"github.com/pryanikov/archiveapp/internal/config"
	"github.com/pryanikov/archiveapp/internal/handler"
	"github.com/pryanikov/archiveapp/internal/liststate"
	"github.com/pryanikov/archiveapp/internal/repository"
	repomemory "github.com/pryanikov/archiveapp/internal/repository/memory"
	"github.com/pryanikov/archiveapp/internal/repository/postgres"
	"github.com/pryanikov/archiveapp/internal/repository/sqlite"
	"github.com/pryanikov/archiveapp/internal/service"
	"github.com/pryanikov/archiveapp/internal/session"
	"github.com/pryanikov/archiveapp/internal/storage"
	storagememory "github.com/pryanikov/archiveapp/internal/storage/memory"
	storages3 "github.com/pryanikov/archiveapp/internal/storage/s3"
	"github.com/pryanikov/archiveapp/internal/workflow"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const cacheTTL = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting archive server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Repositories
	docRepo, userRepo, pinger, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Cache decorator around the document repository
	docRepo, cacheCleanup, err := wrapWithCache(ctx, cfg, docRepo, logger)
	if err != nil {
		return err
	}
	defer cacheCleanup()

	// Attachment storage
	attachments, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Session and services
	sessions := session.NewManager(userRepo, logger)
	authService := service.NewAuthService(sessions, logger)
	documentService := service.NewDocumentService(docRepo, sessions, logger)

	// Workflow coordinator and list state holders
	coordinator := workflow.NewCoordinator(sessions, logger)
	defer coordinator.Close()

	homeHolder := liststate.NewSearchHolder(
		documentService.GetAll,
		documentService.Search,
		cfg.Search.Debounce,
		logger,
	)
	myHolder := liststate.NewHolder(documentService.GetMy, logger)

	// Metrics
	var (
		registry *prometheus.Registry
		metrics  *handler.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = handler.NewMetrics(registry)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:     handler.NewAuthHandler(authService, logger),
		Document: handler.NewDocumentHandler(documentService, attachments, cfg.Server.MaxBodySize, logger),
		Workflow: handler.NewWorkflowHandler(coordinator, logger),
		UIState:  handler.NewUIStateHandler(homeHolder, myHolder, logger),
		Metrics:  metrics,
		Registry: registry,
		DB:       pinger,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// buildRepositories constructs the document and user repositories for
// the configured driver.
func buildRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (
	repository.DocumentRepository, repository.UserRepository, handler.Pinger, func(), error,
) {
	switch cfg.Database.Driver {
	case "memory":
		return repomemory.NewDocumentRepository(), repomemory.NewUserRepository(), nil, func() {}, nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Database.Path,
			JournalMode:     cfg.Database.JournalMode,
			BusyTimeout:     cfg.Database.BusyTimeout,
			CacheSize:       cfg.Database.CacheSize,
			SynchronousMode: cfg.Database.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		cleanup := func() { _ = db.Close() }
		return sqlite.NewDocumentRepository(db, logger), sqlite.NewUserRepository(db, logger), db, cleanup, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Config{
			DSN:             cfg.Database.DSN(),
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		cleanup := func() { _ = db.Close() }
		return postgres.NewDocumentRepository(db, logger), postgres.NewUserRepository(db, logger), db, cleanup, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// wrapWithCache decorates the document repository with a Redis or
// in-process cache.
func wrapWithCache(ctx context.Context, cfg *config.Config, repo repository.DocumentRepository, logger zerolog.Logger) (
	repository.DocumentRepository, func(), error,
) {
	if cfg.Redis.Enabled {
		cache, err := cacheredis.NewCache(ctx, cacheredis.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cleanup := func() { _ = cache.Close() }
		return repository.NewCachedDocumentRepository(repo, cache, cacheTTL, logger), cleanup, nil
	}

	cache := cachememory.NewCache()
	return repository.NewCachedDocumentRepository(repo, cache, cacheTTL, logger), cache.Stop, nil
}

// buildStorage constructs the attachment storage backend.
func buildStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storagememory.NewStore(), nil
	case "s3":
		return storages3.NewStore(ctx, storages3.Config{
			Region:    cfg.Storage.S3.Region,
			Bucket:    cfg.Storage.S3.Bucket,
			AccessKey: cfg.Storage.S3.AccessKeyID,
			SecretKey: cfg.Storage.S3.SecretAccessKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newLogger builds the root logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
