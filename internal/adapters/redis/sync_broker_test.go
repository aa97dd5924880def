package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalysonbl/authgate/internal/adapters/broadcast"
	"github.com/thalysonbl/authgate/internal/testutil"
)

func TestSyncBroker_DeliversToOtherHandles(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	prefix := testutil.ChannelPrefix(t)

	broker := NewSyncBroker(SyncBrokerOptions{Client: client, Prefix: prefix})
	ctx := context.Background()

	a, err := broker.Open(ctx, "auth")
	require.NoError(t, err)
	defer a.Close()
	b, err := broker.Open(ctx, "auth")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Post(ctx, "signOut"))

	select {
	case msg := <-b.Messages():
		assert.Equal(t, "signOut", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	select {
	case msg := <-a.Messages():
		t.Fatalf("sender received its own message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncBroker_IgnoresMalformedPayloads(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	prefix := testutil.ChannelPrefix(t)

	broker := NewSyncBroker(SyncBrokerOptions{Client: client, Prefix: prefix})
	ctx := context.Background()

	h, err := broker.Open(ctx, "auth")
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, client.Publish(ctx, prefix+"auth", "not json").Err())
	require.NoError(t, client.Publish(ctx, prefix+"auth", `{"sender":"other","data":"signOut"}`).Err())

	select {
	case msg := <-h.Messages():
		assert.Equal(t, "signOut", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSyncBroker_CloseIsIdempotent(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	broker := NewSyncBroker(SyncBrokerOptions{Client: client, Prefix: testutil.ChannelPrefix(t)})
	ctx := context.Background()

	h, err := broker.Open(ctx, "auth")
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, ok := <-h.Messages()
	assert.False(t, ok)
	assert.ErrorIs(t, h.Post(ctx, "signOut"), broadcast.ErrClosed)
}

func TestSyncBroker_OpenValidation(t *testing.T) {
	_, err := NewSyncBroker(SyncBrokerOptions{}).Open(context.Background(), "auth")
	require.Error(t, err)
}
