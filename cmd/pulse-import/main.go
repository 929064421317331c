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
	"github.com/aevon-lab/project-pulse/internal/core/storage/postgres"
	"github.com/aevon-lab/project-pulse/internal/importer"
	"github.com/aevon-lab/project-pulse/internal/ingestion"
	"github.com/aevon-lab/project-pulse/internal/migrations"
)

func main() {
	configPath := flag.String("config", "pulse.yaml", "Path to configuration file")
	batchSize := flag.Int("batch", importer.DefaultBatchSize, "Rows committed per transaction")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config pulse.yaml] [-batch 1000] <events.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logging.SlogLevel()})))

	if err := run(cfg, flag.Arg(0), *batchSize); err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *corecfg.Config, csvPath string, batchSize int) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	dbAdapter, err := postgres.NewAdapter(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return err
	}
	defer dbAdapter.Close()

	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		return err
	}
	if err := dbAdapter.Prepare(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := importer.New(ingestion.NewPipeline(dbAdapter), batchSize).Import(ctx, f)
	fmt.Println(summary)
	return err
}
