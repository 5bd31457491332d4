package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/app"
	"tracker/internal/backend"
	"tracker/internal/cache"
	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/metrics"
	"tracker/internal/store"
)

const (
	shutdownTimeout  = 30 * time.Second
	cacheSweepPeriod = time.Minute
)

func main() {
	cli.LoadEnvFile()

	bootstrap := log.New(log.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	rec := metrics.NewRecorder()
	s, err := store.Load(ctx, res.KV,
		store.WithPublisher(res.Publisher),
		store.WithMetrics(rec),
		store.WithLogger(logger.WithComponent(log.ComponentStore)),
	)
	if err != nil {
		logger.Error("Failed to load transactions", log.FieldError, err)
		os.Exit(1)
	}

	views := cache.NewLRUCache[app.View](cfg.CacheSize, cfg.CacheTTL)
	state := app.NewState(s, store.NewPreferences(res.KV), app.Config{
		PageSize:       cfg.PageSize,
		CurrencySymbol: cfg.CurrencySymbol,
		Views:          views,
		Logger:         logger.WithComponent(log.ComponentApp),
	})

	srv := apphttp.NewServer(cfg.Addr(), state,
		apphttp.WithMetrics(rec),
		apphttp.WithLogger(logger),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	caches := cache.NewManager(logger)
	caches.Register(views)
	caches.Register(srv.RateLimiter())

	logger.Info("Starting tracker server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		log.FieldCount, s.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, shutdownTimeout) })
	g.Go(func() error { return caches.Run(gctx, cacheSweepPeriod) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
