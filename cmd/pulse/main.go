package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/project-pulse/internal/core/config"
	"github.com/aevon-lab/project-pulse/internal/core/storage/clickhouse"
	"github.com/aevon-lab/project-pulse/internal/core/storage/postgres"
	"github.com/aevon-lab/project-pulse/internal/ingestion"
	"github.com/aevon-lab/project-pulse/internal/migrations"
	"github.com/aevon-lab/project-pulse/internal/server"
	"github.com/aevon-lab/project-pulse/internal/stats"
	"github.com/aevon-lab/project-pulse/internal/syncjob"
	"github.com/aevon-lab/project-pulse/internal/tasks"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "pulse.yaml", "Path to configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	slog.SetDefault(newLogger(cfg.Logging))
	slog.Info("Loaded config",
		"config_path", *configPath,
		"analytics_enabled", cfg.Analytics.Enabled,
		"sync_enabled", cfg.SyncEnabled(),
		"sync_interval", cfg.Sync.Interval)

	// 3. Initialize Event Store (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	if err := dbAdapter.Prepare(); err != nil {
		slog.Error("Failed to prepare database adapter", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Analytical Store (ClickHouse), optional
	var chStore *clickhouse.Store
	if cfg.Analytics.Enabled {
		chStore, err = clickhouse.NewStore(
			cfg.Analytics.DSN,
			cfg.Analytics.MaxOpenConns,
			cfg.Analytics.MaxIdleConns,
			cfg.Analytics.DialTimeout,
		)
		if err != nil {
			// Queries fall back to the event store and sync stays off until restart.
			slog.Warn("Analytical store unavailable, serving queries from the event store", "error", err)
			chStore = nil
		} else {
			defer chStore.Close()
		}
	}

	// 5. Initialize Task Runner and task handlers
	runner := tasks.NewRunner(tasks.Config{
		Workers:        cfg.Tasks.Workers,
		QueueSize:      cfg.Tasks.QueueSize,
		MaxAttempts:    cfg.Tasks.MaxAttempts,
		InitialBackoff: cfg.Tasks.InitialBackoff,
		MaxBackoff:     cfg.Tasks.MaxBackoff,
		ResultTTL:      cfg.Tasks.ResultTTL,
		ShutdownGrace:  cfg.Tasks.ShutdownGrace,
	})

	pipeline := ingestion.NewPipeline(dbAdapter)
	runner.Register(ingestion.TaskName, pipeline.Handle)

	var (
		syncJob   *syncjob.Job
		scheduler *syncjob.Scheduler
	)
	if chStore != nil {
		syncJob = syncjob.NewJob(dbAdapter, chStore)
		runner.Register(syncjob.TaskName, syncJob.Handle)
		if cfg.SyncEnabled() {
			scheduler = syncjob.NewScheduler(cfg.Sync.Interval, runner)
		}
	}

	// 6. Initialize Query Router
	statsCfg := stats.Config{
		MaxStaleness:        cfg.Stats.MaxStaleness,
		DefaultTopLimit:     cfg.Stats.DefaultTopLimit,
		MaxTopLimit:         cfg.Stats.MaxTopLimit,
		MaxRetentionWindows: cfg.Stats.MaxRetentionWindows,
	}
	var statsSvc *stats.Service
	if chStore != nil {
		statsSvc = stats.NewService(clickhouse.NewColumnarBackend(chStore.DB()), postgres.NewRelationalBackend(dbAdapter.DB()), syncJob, statsCfg)
	} else {
		statsSvc = stats.NewService(nil, postgres.NewRelationalBackend(dbAdapter.DB()), nil, statsCfg)
	}

	// 7. Initialize Server and routes
	opts := server.Options{
		Addr:            fmtAddr(cfg.Server.Host, cfg.Server.Port),
		Mode:            cfg.Server.Mode,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		EventStore:      dbAdapter,
	}
	if chStore != nil {
		opts.Analytics = chStore
	}
	srv := server.New(opts)

	ingestRoutes, queryRoutes := srv.Group(), srv.Group()
	if cfg.RateLimit.Enabled {
		ingestRoutes = srv.Group(server.RateLimit(server.NewIPRateLimiter(cfg.RateLimit.IngestPerMinute, cfg.RateLimit.Burst)))
		queryRoutes = srv.Group(server.RateLimit(server.NewIPRateLimiter(cfg.RateLimit.QueryPerMinute, cfg.RateLimit.Burst)))
	}
	ingestion.NewService(runner, cfg.Server.MaxBodySizeMB).RegisterRoutes(ingestRoutes)
	statsSvc.RegisterRoutes(queryRoutes)
	runner.RegisterRoutes(srv.Engine)
	if chStore != nil {
		syncjob.NewTrigger(runner).RegisterRoutes(srv.Engine)
	}

	// 8. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Start(gctx)
	})
	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	} else {
		slog.Info("Sync scheduler disabled")
	}
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func newLogger(cfg corecfg.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
