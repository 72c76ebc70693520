package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hazard-data-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-data-service/internal/adapter/nve"
	"github.com/couchcryptid/hazard-data-service/internal/adapter/regobs"
	"github.com/couchcryptid/hazard-data-service/internal/cache"
	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/hazard"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
	"github.com/couchcryptid/hazard-data-service/internal/pipeline"
)

// alwaysReady is the readiness check when the poller is disabled.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nveClient, err := nve.NewClient(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to create nve client", "error", err)
		os.Exit(1)
	}
	src := hazard.Sources{Avalanche: nveClient, County: nveClient}
	if cfg.RegobsEnabled {
		src.Observations = regobs.NewClient(cfg.RegobsBaseURL, cfg.FetchTimeout, logger, metrics)
		logger.Info("regobs observations enabled", "base_url", cfg.RegobsBaseURL)
	} else {
		logger.Info("regobs observations disabled")
	}

	var store cache.Store
	switch cfg.CacheBackend {
	case "redis":
		client, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = cache.NewRedisStore(client)
	default:
		store = cache.NewMemoryStore()
	}
	logger.Info("activity cache ready", "backend", cfg.CacheBackend)

	svc := hazard.NewService(src, store, logger, metrics, cfg.PollConcurrency)

	var (
		ready  httpadapter.ReadinessChecker = alwaysReady{}
		board  httpadapter.SnapshotSource
		poller *pipeline.Poller
		writer *kafkaadapter.Writer
	)
	if cfg.PollEnabled {
		var pub pipeline.SnapshotPublisher
		if cfg.KafkaEnabled {
			writer = kafkaadapter.NewWriter(cfg, logger)
			pub = writer
			logger.Info("kafka snapshot publishing enabled", "topic", cfg.KafkaTopic)
		}
		poller = pipeline.New(svc, pub, cfg, logger, metrics)
		ready, board = poller, poller
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, board, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poller.
	if poller != nil {
		go func() {
			if err := poller.Run(ctx); err != nil {
				logger.Error("poller error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
