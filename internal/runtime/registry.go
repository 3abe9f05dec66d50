package runtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/queue/streams"
)

// InitSchemaRegistry returns a registry populated with the progress event
// schemas.
func InitSchemaRegistry() (*streams.SchemaRegistry, error) {
	reg := streams.NewSchemaRegistry()
	if err := streams.RegisterBaseSchemas(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewRedisClient connects to storage.redis and pings it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.Addr(), err)
	}
	return rdb, nil
}

// InitProgress wires a progress publisher to storage.redis. It returns nil
// values when Redis is not configured. The caller closes the client.
func InitProgress(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*streams.ProgressPublisher, *redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}
	reg, err := InitSchemaRegistry()
	if err != nil {
		return nil, nil, err
	}
	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	pub := streams.NewPublisher(rdb, reg)
	return streams.NewProgressPublisher(pub, cfg.Stream, cfg.MaxLen, cfg.Timeout, logger), rdb, nil
}
