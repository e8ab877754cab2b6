package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/app"
	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/geo"
	"github.com/iftarsharebd/iftarmap/internal/scheduler"
	"github.com/iftarsharebd/iftarmap/internal/server/handlers"
	"github.com/iftarsharebd/iftarmap/internal/server/router"
	"github.com/iftarsharebd/iftarmap/internal/service/board"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
	"github.com/iftarsharebd/iftarmap/internal/service/stats"
	"github.com/iftarsharebd/iftarmap/internal/service/views"
	whatsappsvc "github.com/iftarsharebd/iftarmap/internal/service/whatsapp"
	"github.com/iftarsharebd/iftarmap/pkg/clients/ipapi"
	whatsappclient "github.com/iftarsharebd/iftarmap/pkg/clients/whatsapp"
	"github.com/iftarsharebd/iftarmap/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.Open(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	notifier, err := backends.Notifier(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init notifiers", zap.Error(err))
	}

	clk := clock.New(cfg.Scheduler.Location())

	curationSvc, err := backends.Curation(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init curation import", zap.Error(err))
	}

	statsSvc := stats.NewService(backends.Store, clk, baseLogger.Named("svc.stats"), stats.WithFallbackAfter(cfg.Views.FallbackAfter))
	if seeded, err := statsSvc.Seed(ctx); err != nil {
		baseLogger.Warn("daily counter not seeded", zap.Error(err))
	} else if seeded {
		baseLogger.Info("daily counter seeded with baseline")
	}

	sessions := session.NewSessionManager()
	boardSvc := board.NewService(backends.Store, clk, statsSvc, sessions, notifier, board.Config{
		Policy:        geo.Policy{ThresholdMeters: cfg.Geo.ThresholdMeters, Strict: cfg.Geo.Strict},
		LocateTimeout: cfg.Geo.Timeout,
	}, baseLogger.Named("svc.board"))

	var ipClient ipapi.Client
	if cfg.Geo.IPLookupURL != "" {
		ipClient = ipapi.NewClient(cfg.Geo.IPLookupURL)
	}

	sched := scheduler.NewScheduler(cfg.Scheduler, clk, sessions, curationSvc, scheduler.NewBroadcaster(), baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	viewBuilder := views.NewBuilder(backends.Store, clk, cfg.Views.FallbackAfter, baseLogger.Named("svc.views"))
	boardHandler := handlers.NewBoardHandler(viewBuilder, boardSvc, statsSvc, clk, ipClient, sched.Broadcaster(), baseLogger.Named("handlers.board"))

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() && cfg.WhatsApp.VerifyToken != "" {
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsappclient.NewClient(cfg.WhatsApp), boardSvc, statsSvc, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	}
	engine := router.New(boardHandler, webhookHandler, baseLogger.Named("router"))

	// No WriteTimeout: event streams stay open for the whole day.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("day_key", clk.DayKey()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
