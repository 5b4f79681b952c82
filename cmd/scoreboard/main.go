package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/scoreboard/internal/adapters/http/api"
	"github.com/okian/scoreboard/internal/adapters/http/site"
	"github.com/okian/scoreboard/internal/adapters/http/swagger"
	repository "github.com/okian/scoreboard/internal/adapters/repository"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	storeMetricsInterval      = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "scoreboard stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is canceled or the listener fails.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, store, log)

	go startSystemMetricsUpdater(ctx)
	go startStoreMetricsUpdater(ctx, store)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("db", store.Path()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*repository.Store, error) {
	return repository.Open(ctx, cfg.DBPath,
		repository.WithMaxOpenConns(cfg.MaxOpenConns),
		repository.WithAcquireTimeout(cfg.AcquireTimeout()),
		repository.WithBusyTimeout(cfg.BusyTimeout()),
		repository.WithLogger(log.Named("store")),
	)
}

func newService(cfg *config.Config, store *repository.Store, log logger.Logger) *service.Service {
	return service.New(store,
		service.WithDefaultLimit(cfg.DefaultLimit),
		service.WithLogger(log.Named("leaderboard")),
	)
}

// newMux registers the API, docs and page routes.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithCORSOrigin(cfg.CORSAllowedOrigin),
		api.WithLogger(log.Named("http")),
	).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startStoreMetricsUpdater publishes pool and entry gauges until ctx is done.
func startStoreMetricsUpdater(ctx context.Context, store *repository.Store) {
	ticker := time.NewTicker(storeMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateStoreMetrics(ctx, store)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateStoreMetrics refreshes pool gauges; Count refreshes the entries gauge.
func updateStoreMetrics(ctx context.Context, store *repository.Store) {
	store.Stats()
	if _, err := store.Count(ctx); err != nil && ctx.Err() == nil {
		logger.Named("metrics").Warn(ctx, "entry count failed", logger.Error(err))
	}
}
