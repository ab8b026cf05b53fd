// Package main is the entry point for the item catalog server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/item-catalog/internal/config"
	"github.com/vyrodovalexey/item-catalog/internal/server"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := initLogger(cfg.EffectiveLogLevel())
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("item catalog starting",
		zap.String("app_name", cfg.AppName),
		zap.String("app_version", cfg.AppVersion),
		zap.String("address", cfg.Address()),
		zap.Int("probe_port", cfg.ProbePort),
		zap.String("api_prefix", cfg.APIPrefix),
		zap.Int("default_page_limit", cfg.DefaultPageLimit),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("events_enabled", cfg.EventsEnabled),
		zap.String("log_level", cfg.EffectiveLogLevel()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger, store.NewMemoryStore())
	return serve(ctx, srv, cfg.ShutdownTimeout, logger)
}

// serve runs srv until it fails or ctx is done, then drains it within timeout.
// It returns the process exit code.
func serve(ctx context.Context, srv *server.Server, timeout time.Duration, logger *zap.Logger) int {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Info("shutdown requested", zap.Duration("timeout", timeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return 1
	}

	logger.Info("item catalog stopped")
	return 0
}

// initLogger builds the JSON production logger at level, falling back to info.
func initLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.MessageKey = "message"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapConfig.Build()
}
