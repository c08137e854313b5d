package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/ChartFeed/internal/config"
	"github.com/JonMunkholm/ChartFeed/internal/core"
	"github.com/JonMunkholm/ChartFeed/internal/docstore"
	"github.com/JonMunkholm/ChartFeed/internal/logging"
	"github.com/JonMunkholm/ChartFeed/internal/store"
	"github.com/JonMunkholm/ChartFeed/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"docstore_base_url", cfg.DocStore.BaseURL,
		"store_enabled", cfg.Database.StoreEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Document store client
	var headers map[string]string
	if cfg.DocStore.AuthToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + cfg.DocStore.AuthToken}
	}
	docs, err := docstore.New(docstore.Config{
		BaseURL:  cfg.DocStore.BaseURL,
		RootPath: cfg.DocStore.RootPath,
		Suffix:   cfg.DocStore.FileSuffix,
		Timeout:  cfg.DocStore.RequestTimeout,
		Headers:  headers,
	})
	if err != nil {
		slog.Error("failed to create document store client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Background jobs stop first during shutdown.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	// Optional configuration database
	var st *store.Store
	if cfg.Database.StoreEnabled() {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}

		// Apply pool configuration from config
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Verify connection
		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		// Log which database we connected to
		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		st = store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure database schema", "error", err)
			os.Exit(1)
		}

		// Prune expired fetch history in the background
		go st.StartRetentionSweeper(jobCtx, store.RetentionConfig{
			RetentionDays: cfg.Database.FetchLogRetentionDays,
			BatchSize:     cfg.Database.FetchLogSweepBatch,
			CheckInterval: cfg.Database.FetchLogSweepInterval,
		})
	} else {
		slog.Info("no database configured, running without saved labels and fetch history")
	}

	// Load seed labels
	seed, err := core.LoadLabelSeed(cfg.Labels.SeedPath)
	if err != nil {
		slog.Error("failed to load label seed", "path", cfg.Labels.SeedPath, "error", err)
		os.Exit(1)
	}
	if len(seed) > 0 {
		slog.Info("label seed loaded", "path", cfg.Labels.SeedPath, "labels", len(seed))
	}

	// A nil *store.Store must stay a nil interface.
	var configStore core.ConfigStore
	if st != nil {
		configStore = st
	}

	// Create service with config
	service, err := core.NewService(docs, configStore, core.ServiceConfig{
		LabelSeed:      seed,
		PrefetchLimit:  cfg.DocStore.PrefetchConcurrency,
		RefreshLimit:   cfg.DocStore.MaxConcurrentRefreshes,
		RefreshMaxWait: cfg.DocStore.RefreshMaxWait,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Create server with config
	server := web.NewServer(service, st, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs, let running refreshes finish, then close
		// the listener.
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := service.DrainRefreshes(shutdownCtx); err != nil {
			slog.Warn("shutdown with refreshes still in flight", "error", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
