package config

import (
	"fmt"
	"strings"
)

// SyncMode selects the broker behind the cross-tab sync channel.
type SyncMode string

const (
	// SyncModeMemory keeps sync in process; fine for a single instance.
	SyncModeMemory SyncMode = "memory"
	// SyncModeRedis uses Redis pub/sub so every instance sees every sign-out.
	SyncModeRedis SyncMode = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SyncMode.
func (m *SyncMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*m = SyncMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SyncMode: %q (valid options: memory, redis)", v)
	}
}

// SyncConfig configures the cross-tab sync channel.
type SyncConfig struct {
	Mode        SyncMode `env:"SYNC_MODE"         envDefault:"memory"`
	Channel     string   `env:"SYNC_CHANNEL"      envDefault:"auth"`
	RedisPrefix string   `env:"SYNC_REDIS_PREFIX" envDefault:"authgate:sync:"`
}

// Sanitize applies guardrails to sync configuration values.
func (s *SyncConfig) Sanitize() {
	if s.Channel = strings.TrimSpace(s.Channel); s.Channel == "" {
		s.Channel = "auth"
	}
	if s.Mode == "" {
		s.Mode = SyncModeMemory
	}
}
