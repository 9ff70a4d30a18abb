package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Runoi/itemstore/internal/config"
)

// New constructs the storage backend selected by the configuration.
// Exactly one backend is built per process; the caller owns the
// returned instance for the remainder of the application's lifetime
// and is responsible for closing it on shutdown.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StorageType {
	case config.StorageMemory:
		logger.Info("storage backend: memory (no persistence)")
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		logger.Info("storage backend: sqlite", zap.String("path", cfg.SQLitePath))
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StorageRedis:
		logger.Info("storage backend: redis", zap.String("url", cfg.RedisURL))
		return NewRedisStore(ctx, cfg.RedisURL)
	default:
		// Unreachable when the config was validated, but the factory
		// still refuses unknown tokens on its own.
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
