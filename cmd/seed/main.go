// Command seed prepares a fresh store: it writes the baseline daily counter
// and imports the curated permanent spots when a sheet is configured.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/app"
	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/service/stats"
	"github.com/iftarsharebd/iftarmap/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	skipCuration := flag.Bool("skip-curation", false, "only seed the daily counter")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backends, err := app.Open(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.Error(err))
	}
	defer func() { _ = backends.Close(context.Background()) }()

	clk := clock.New(cfg.Scheduler.Location())

	seeded, err := stats.NewService(backends.Store, clk, baseLogger.Named("svc.stats")).Seed(ctx)
	if err != nil {
		baseLogger.Fatal("failed to seed daily counter", zap.Error(err))
	}
	baseLogger.Info("daily counter checked", zap.Bool("seeded", seeded), zap.String("day_key", clk.DayKey()))

	if *skipCuration {
		return
	}

	curationSvc, err := backends.Curation(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init curation import", zap.Error(err))
	}
	if curationSvc == nil {
		baseLogger.Info("no curation sheet configured, skipping import")
		return
	}

	res, err := curationSvc.Import(ctx)
	if err != nil {
		baseLogger.Fatal("curation import failed", zap.Error(err))
	}
	baseLogger.Info("curated spots imported", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
}
