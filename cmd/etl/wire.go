package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/hazard-etl/internal/adapter/caic"
	"github.com/couchcryptid/hazard-etl/internal/adapter/file"
	"github.com/couchcryptid/hazard-etl/internal/adapter/inreach"
	kafkaadapter "github.com/couchcryptid/hazard-etl/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-etl/internal/adapter/natsadapter"
	"github.com/couchcryptid/hazard-etl/internal/adapter/redisadapter"
	"github.com/couchcryptid/hazard-etl/internal/config"
	"github.com/couchcryptid/hazard-etl/internal/observability"
	"github.com/couchcryptid/hazard-etl/internal/pipeline"
	"github.com/redis/go-redis/v9"
)

// closableEmitter is an emitter that may hold a broker connection.
type closableEmitter interface {
	pipeline.Emitter
	Close() error
}

type nopCloser struct{ pipeline.Emitter }

func (nopCloser) Close() error { return nil }

func newCollector(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (pipeline.Collector, error) {
	switch cfg.Variant {
	case config.VariantForecast:
		client := caic.NewClient(cfg.CAICBaseURL, cfg.FetchTimeout, logger)
		logger.Info("forecast collector configured", "base_url", cfg.CAICBaseURL, "remarks_policy", cfg.RemarksPolicy)
		return pipeline.NewForecastCollector(client, client, cfg.RemarksPolicy, logger, metrics), nil
	case config.VariantTracker:
		client := inreach.NewClient(cfg.InReachBaseURL, cfg.FetchTimeout, logger)
		logger.Info("tracker collector configured", "entities", len(cfg.TrackerSources), "concurrency", cfg.FetchConcurrency)
		return pipeline.NewTrackerCollector(client, cfg.TrackerSources, cfg.FetchConcurrency, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
}

func newEmitter(cfg *config.Config, logger *slog.Logger) (closableEmitter, error) {
	switch cfg.Emitter {
	case config.EmitterStdout:
		return nopCloser{file.NewStreamWriter(os.Stdout, logger)}, nil
	case config.EmitterFile:
		logger.Info("file emitter configured", "path", cfg.OutputPath)
		return nopCloser{file.NewPathWriter(cfg.OutputPath, logger)}, nil
	case config.EmitterKafka:
		logger.Info("kafka emitter configured", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
		return kafkaadapter.NewWriter(cfg, logger), nil
	case config.EmitterNATS:
		logger.Info("nats emitter configured", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
		p, err := natsadapter.NewPublisher(cfg.NATSURL, cfg.NATSSubject, cfg.Variant, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.EmitterRedis:
		logger.Info("redis emitter configured", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
		p := redisadapter.NewPublisher(&redis.Options{Addr: cfg.RedisAddr}, cfg.RedisChannel, logger)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			p.Close() //nolint:errcheck,gosec // ping error takes precedence
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown emitter %q", cfg.Emitter)
	}
}
