package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bills/internal/amqp"
	"bills/internal/backend"
	"bills/internal/cache"
	"bills/internal/config"
	"bills/internal/core"
	apphttp "bills/internal/http"
	"bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/services"
	"bills/internal/views"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()
	ledgerCache := cache.NewLRUCache[[]core.Bill](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	cacheManager.Register(ledgerCache)
	cacheManager.Start(ctx, cfg.CacheTTL)

	closers := []io.Closer{closerFunc(res.Cleanup)}
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best effort; the ledger works without them.
			logger.Warn("AMQP unavailable, bill events disabled", log.FieldError, err)
		} else {
			publisher = client
			closers = append([]io.Closer{client}, closers...)
			logger.Info("Publishing bill events", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.NewBillService(res.Store, services.Options{
		Cache:     ledgerCache,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
		Closers:   closers,
	})

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Ledger:             svc,
		Bills:              views.NewBillsView(svc, loc, time.Now),
		Charts:             views.NewChartsView(svc, cfg.ChartWidth, cfg.ChartHeight),
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           loc,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting bills server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"seeded", res.Seeded,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		cacheManager.Wait()
		_ = svc.Close()
		os.Exit(1)
	}

	cancel()
	cacheManager.Wait()
	if err := svc.Close(); err != nil {
		logger.Error("Failed to release resources", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}

// newLogger builds the root logger. Invalid settings fall back to info level,
// and Validate reports them right after.
func newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.DefaultConfig().Level
	}
	return log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
