package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/adapters/broadcast"
	"github.com/thalysonbl/authgate/internal/adapters/devauth"
	"github.com/thalysonbl/authgate/internal/adapters/jwtclaims"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

func unsignedToken(t *testing.T, perms, roles []string) string {
	t.Helper()
	claims := jwtclaims.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)),
		},
		Email:       "user@example.com",
		Permissions: perms,
		Roles:       roles,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return raw
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	require.Contains(t, out, "Usage: authgate-admin")
	for name := range commands() {
		require.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "broadcast-sign-out"), strings.Index(out, "tabs"), "commands are sorted")
}

func TestDecodeToken_Table(t *testing.T) {
	var buf bytes.Buffer
	err := decodeToken(&buf, decodeOptions{
		Token:       unsignedToken(t, []string{"users.list"}, []string{domainauth.RoleEditor}),
		Permissions: "users.list, users.create",
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "user-1")
	require.Contains(t, out, "users.list")
	require.Contains(t, out, "2030-01-02T03:04:05Z")
	require.Regexp(t, `Allowed\s+false`, out)
}

func TestDecodeToken_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := decodeToken(&buf, decodeOptions{
		Token:   unsignedToken(t, nil, []string{domainauth.RoleAdministrator}),
		Roles:   "administrator,editor",
		RawJSON: true,
	})
	require.NoError(t, err)

	var got decodeResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.NotNil(t, got.Allowed)
	assert.True(t, *got.Allowed)
	assert.Equal(t, []string{"administrator", "editor"}, got.Requirement.Roles)
	assert.Nil(t, got.Requirement.Permissions)
}

func TestDecodeToken_Malformed(t *testing.T) {
	err := decodeToken(io.Discard, decodeOptions{Token: "not-a-jwt"})
	assert.ErrorIs(t, err, domainauth.ErrMalformedToken)
}

func TestReadToken(t *testing.T) {
	tok, err := readToken(strings.NewReader("  abc.def.ghi \n"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	_, err = readToken(strings.NewReader(""))
	require.Error(t, err)
}

func TestRequirementFromFlags(t *testing.T) {
	assert.Nil(t, requirementFromFlags("", " , "))
	assert.Equal(t, &domainauth.Requirement{Permissions: []string{"a", "b"}}, requirementFromFlags("a, b", ""))
}

func TestParseBroadcastOptions(t *testing.T) {
	_, err := parseBroadcastOptions(nil, "auth")
	require.Error(t, err)

	_, err = parseBroadcastOptions([]string{"--device", "../etc"}, "auth")
	require.Error(t, err)

	opts, err := parseBroadcastOptions([]string{"--device", "6f1c8a1e-0b6a-4a7e-9a55-0c3f2d1e4b7a"}, "")
	require.NoError(t, err)
	assert.Equal(t, "auth:6f1c8a1e-0b6a-4a7e-9a55-0c3f2d1e4b7a", opts.channelName())
}

func TestRunBroadcastSignOut_RequiresRedisSync(t *testing.T) {
	ctx := &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.AppConfig{Sync: config.SyncConfig{Mode: config.SyncModeMemory, Channel: "auth"}},
		Out:    io.Discard,
	}
	err := runBroadcastSignOut(ctx, []string{"--device", "6f1c8a1e-0b6a-4a7e-9a55-0c3f2d1e4b7a"})
	require.ErrorContains(t, err, "SYNC_MODE=redis")
}

func TestParseTabsOptions(t *testing.T) {
	_, err := parseTabsOptions([]string{"--count", "0", "--email", "a", "--password", "b"})
	require.Error(t, err)
	_, err = parseTabsOptions([]string{"--email", "a"})
	require.Error(t, err)

	opts, err := parseTabsOptions([]string{"--email", "a@example.com", "--password", "pw"})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Count)
	assert.Equal(t, 2*time.Second, opts.Settle)
}

func TestSimulateTabs_AllTabsFollowSignOut(t *testing.T) {
	dev, err := devauth.NewBackend(devauth.Config{
		Email:    "dev@example.com",
		Password: "dev",
		Roles:    []string{domainauth.RoleAdministrator},
		Secret:   "test-secret",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = simulateTabs(context.Background(), tabsRequest{
		Options: tabsOptions{
			Count:    3,
			Origin:   "http://portal.test",
			Email:    "dev@example.com",
			Password: "dev",
			Settle:   2 * time.Second,
		},
		NewBackend: func() ports.IdentityBackend { return dev.WithBearer("") },
		Broker:     broadcast.NewHub(),
		Session:    service.DefaultSessionConfig(),
		Out:        &buf,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	out := buf.String()
	for _, line := range []string{
		"tab 1 -> /dashboard",
		"tab 2: dev@example.com [administrator]",
		"tab 3: dev@example.com [administrator]",
		"tab 1 -> /\n",
		"tab 2 -> /\n",
		"tab 3 -> /\n",
		"tab 3: signed out",
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "still signed in")
}

func TestSimulateTabs_RejectedSignIn(t *testing.T) {
	dev, err := devauth.NewBackend(devauth.Config{Email: "dev@example.com", Password: "dev"})
	require.NoError(t, err)

	err = simulateTabs(context.Background(), tabsRequest{
		Options:    tabsOptions{Count: 1, Origin: "http://portal.test", Email: "dev@example.com", Password: "nope"},
		NewBackend: func() ports.IdentityBackend { return dev.WithBearer("") },
		Out:        io.Discard,
	})
	assert.ErrorIs(t, err, domainauth.ErrCredentialsRejected)
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseCluster: true, ClusterNodes: []string{"a:7000"}}))
}
