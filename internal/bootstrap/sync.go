package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/adapters/broadcast"
	redisadapter "github.com/thalysonbl/authgate/internal/adapters/redis"
	"github.com/thalysonbl/authgate/internal/ports"
)

// SyncDeps groups dependencies for BuildSyncBroker.
type SyncDeps struct {
	Sync        config.SyncConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildSyncBroker returns the broker that carries sign-out broadcasts between tabs.
//
//nolint:ireturn // the broker implementation depends on SYNC_MODE.
func BuildSyncBroker(deps SyncDeps) (ports.SyncBroker, error) {
	switch deps.Sync.Mode {
	case config.SyncModeRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis sync requires a redis client")
		}
		if deps.Logger != nil {
			deps.Logger.Info("cross-tab sync via redis", "prefix", deps.Sync.RedisPrefix)
		}
		return redisadapter.NewSyncBroker(redisadapter.SyncBrokerOptions{
			Client: deps.RedisClient,
			Prefix: deps.Sync.RedisPrefix,
			Logger: deps.Logger,
		}), nil
	case config.SyncModeMemory, "":
		if deps.Logger != nil {
			deps.Logger.Info("cross-tab sync in process")
		}
		return broadcast.NewHub(), nil
	default:
		return nil, fmt.Errorf("unsupported sync mode %q", deps.Sync.Mode)
	}
}
