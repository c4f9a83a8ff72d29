package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/coffee-trend-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/coffee-trend-service/internal/adapter/kafka"
	"github.com/couchcryptid/coffee-trend-service/internal/adapter/psd"
	"github.com/couchcryptid/coffee-trend-service/internal/config"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := psd.NewClient(cfg.PSDBaseURL, cfg.PSDAPIKey, cfg.PSDCommodityCode, cfg.PSDTimeout, metrics, logger)
	source := psd.NewCachedSource(client, cfg.PSDCacheSize, cfg.PSDCacheTTL, clockwork.NewRealClock(), metrics)
	logger.Info("psd source ready",
		"base_url", cfg.PSDBaseURL, "commodity", cfg.PSDCommodityCode,
		"cache_size", cfg.PSDCacheSize, "cache_ttl", cfg.PSDCacheTTL, "timeout", cfg.PSDTimeout)

	// Analysis publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher *kafkaadapter.Publisher
	var analyzer *pipeline.Analyzer
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		metrics.PublisherEnabled.Set(1)
		analyzer = pipeline.New(source, publisher, logger, metrics, cfg.PSDReferenceYear)
		logger.Info("analysis publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		analyzer = pipeline.New(source, nil, logger, metrics, cfg.PSDReferenceYear)
		logger.Info("analysis publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, analyzer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
