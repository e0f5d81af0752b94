// Package main is the entry point for the statusboard controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statusboard/internal/auth"
	"statusboard/internal/config"
	"statusboard/internal/controller"
	"statusboard/internal/controller/handlers"
	"statusboard/internal/controller/middleware"
	"statusboard/internal/engine"
	"statusboard/internal/logger"
	"statusboard/internal/observability"
	"statusboard/internal/status"
	"statusboard/internal/store"
	"statusboard/internal/store/memory"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: statusboard.yaml in current directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("controller stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: "statusboard-controller",
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics("statusboard-controller")
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	board := status.NewBoard(memory.NewRegistry(), log)
	if err := observability.RegisterJobGauge(board.ActiveCount); err != nil {
		log.Warn("failed to register job gauge", "error", err)
	}

	eng := engine.New(engine.Config{
		Concurrency: cfg.EngineConcurrency,
		JobTimeout:  max(time.Hour, cfg.DeployTimeout+time.Minute),
	}, engine.DefaultRunners(cfg.DeployTimeout), log)

	users := userDirectory(cfg, log)
	limiter := middleware.NewRateLimiter(middleware.WithLimit(cfg.ReportRateLimit, cfg.ReportRateBurst))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, handlers.New(board, eng, log), users, log, controller.Options{
		APIPrefix:     cfg.APIPrefix,
		Metrics:       metricsHandler,
		ReportLimiter: limiter,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("statusboard controller starting", "addr", addr, "api_prefix", cfg.APIPrefix)
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("controller exited")
	return err
}

// userDirectory builds the API key directory from config. ADMIN_API_KEY,
// when set, adds an "admin" user holding that key.
func userDirectory(cfg *config.Config, log *slog.Logger) *memory.UserStore {
	users := memory.NewUserStore(nil)
	for _, u := range cfg.Users {
		users.AddUser(u.APIKeyHash, store.User{ID: u.ID, Name: u.Name, Admin: u.Admin})
	}
	if cfg.AdminAPIKey != "" {
		users.AddUser(auth.HashKey(cfg.AdminAPIKey), store.User{ID: "admin", Name: "Administrator", Admin: true})
	}
	if len(cfg.Users) == 0 && cfg.AdminAPIKey == "" {
		log.Warn("no users configured; every secure route will answer 401")
	}
	return users
}
