package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/bootstrap"
	"github.com/thalysonbl/authgate/internal/ports"
)

var errRedisNotConfigured = errors.New("redis not configured")

// syncInfra is the broker plus whatever must be closed after use.
type syncInfra struct {
	Broker ports.SyncBroker
	redis  redis.UniversalClient
}

func (s syncInfra) Close() error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// connectSync builds the broker for the configured sync mode.
func connectSync(ctx *commandContext) (syncInfra, error) {
	var client redis.UniversalClient
	if ctx.Config.NeedsRedis() {
		c, err := maybeConnectRedis(ctx, &ctx.Config.Redis)
		if err != nil {
			return syncInfra{}, err
		}
		client = c
	}

	broker, err := bootstrap.BuildSyncBroker(bootstrap.SyncDeps{
		Sync:        ctx.Config.Sync,
		RedisClient: client,
		Logger:      ctx.Logger,
	})
	if err != nil {
		if client != nil {
			err = errors.Join(err, client.Close())
		}
		return syncInfra{}, err
	}
	return syncInfra{Broker: broker, redis: client}, nil
}

// maybeConnectRedis returns a connected client when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(ctx *commandContext, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(ctx.Ctx, bootstrap.RedisConnectConfig{Redis: *cfg, Logger: loggerOrDefault(ctx.Logger)})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
