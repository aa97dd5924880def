package testutil

// Package testutil provides shared helpers for tests that need live
// infrastructure. Helpers skip the calling test when the dependency is not
// reachable unless TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// SetupTestRedis returns a client for the first reachable Redis: REDIS_ADDR,
// then redis:6379, then TEST_REDIS_ADDR (default localhost:6379).
// The client is closed when the test ends; the test is skipped when no
// Redis answers.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	candidates := []string{"redis:6379"}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		candidates = append(candidates, addr)
	} else {
		candidates = append(candidates, "localhost:6379")
	}

	for _, addr := range candidates {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			t.Cleanup(func() { _ = client.Close() })
			return client
		}
		t.Logf("Redis not available at %s: %v", addr, err)
		_ = client.Close()
	}

	if requireRedis() {
		t.Fatal("Redis not available for testing")
	}
	t.Skip("Redis not available for testing")
	return nil
}

// ChannelPrefix returns a pub/sub prefix unique to the calling test.
// Pub/sub ignores the selected DB, so tests sharing a server isolate by name.
func ChannelPrefix(t testing.TB) string {
	t.Helper()
	return "authgate:test:" + uuid.NewString() + ":"
}
