package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/formulary/backend/config"
	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/cache"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/formulary/backend/internal/infrastructure/records"
)

type closeFunc func() error

func noopClose() error { return nil }

// buildRecordSource opens the record source named by cfg.Records.Type.
func buildRecordSource(cfg *config.Config, logger logging.Logger) (domain.RecordSource, closeFunc, error) {
	switch cfg.Records.Type {
	case "file":
		logger.Info("using file record source", logging.String("path", cfg.Records.Path))
		return records.NewFileSource(cfg.Records.Path), noopClose, nil

	case "sqlite":
		store, err := records.NewSQLiteStore(cfg.Records.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite record source", logging.String("path", cfg.Records.SQLitePath))
		return store, store.Close, nil

	case "http":
		source := records.NewRemoteSource(records.RemoteConfig{
			BaseURL:           cfg.Records.BaseURL,
			RequestsPerSecond: cfg.Records.RequestsPerSecond,
			Burst:             cfg.Records.Burst,
			Timeout:           cfg.Records.Timeout,
		}, logger)
		logger.Info("using remote record source", logging.String("base_url", cfg.Records.BaseURL))
		return source, noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unsupported records type %q", cfg.Records.Type)
	}
}

// buildCache connects the resolution cache named by cfg.Cache.Type.
func buildCache(ctx context.Context, cfg *config.Config, logger logging.Logger) (domain.CacheRepository, closeFunc, error) {
	switch cfg.Cache.Type {
	case "redis":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		c, err := cache.NewRedisCache(connectCtx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis cache")
		return c, c.Close, nil

	default:
		c := cache.NewMemoryCache(0)
		logger.Info("using memory cache", logging.Duration("ttl", cfg.Cache.TTL))
		return c, c.Close, nil
	}
}
