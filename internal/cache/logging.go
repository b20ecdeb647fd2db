package cache

import (
	"context"
	"time"

	"tamatar-api/internal/metrics"
	"tamatar-api/pkg/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with logging + metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a store that logs and records metrics.
func NewLoggingStore(inner Store) Store {
	return &LoggingStore{inner: inner}
}

func (s *LoggingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	}

	if dish, kind, parsed := parseKey(key); parsed {
		fields = append(fields,
			zap.String("dish", dish),
			zap.String("kind", string(kind)),
		)
		if result == "hit" {
			metrics.CacheHitsTotal.WithLabelValues(string(kind)).Inc()
		} else if result == "miss" {
			metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
		}
	}

	if err != nil {
		logger.Error("content_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("content_cache_get", fields...)
	}

	return value, ok, err
}

func (s *LoggingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	}

	if dish, kind, parsed := parseKey(key); parsed {
		fields = append(fields,
			zap.String("dish", dish),
			zap.String("kind", string(kind)),
		)
	}

	if err != nil {
		logger.Error("content_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("content_cache_set", fields...)
	}

	return err
}

func (s *LoggingStore) Delete(ctx context.Context, keys ...string) (int, error) {
	n, err := s.inner.Delete(ctx, keys...)
	if err != nil {
		logging.L(ctx).Error("content_cache_delete", zap.Strings("keys", keys), zap.Error(err))
	}
	return n, err
}

func (s *LoggingStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n, err := s.inner.DeletePrefix(ctx, prefix)
	if err != nil {
		logging.L(ctx).Error("content_cache_delete_prefix", zap.String("prefix", prefix), zap.Error(err))
	}
	return n, err
}

func (s *LoggingStore) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.inner.SweepExpired(ctx)
	logger := logging.L(ctx)
	if err != nil {
		logger.Error("content_cache_sweep", zap.Error(err))
		return n, err
	}
	if n > 0 {
		logger.Info("content_cache_sweep",
			zap.Int("removed", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return n, nil
}
