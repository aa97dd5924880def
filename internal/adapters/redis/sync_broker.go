package redis

// Package redis provides a Redis pub/sub backed sync channel so sessions
// served by different processes still observe each other's sign-outs.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/thalysonbl/authgate/internal/adapters/broadcast"
	"github.com/thalysonbl/authgate/internal/ports"
)

// DefaultPrefix namespaces pub/sub channels.
const DefaultPrefix = "authgate:sync:"

var _ ports.SyncBroker = (*SyncBroker)(nil)

// SyncBroker opens sync channels backed by Redis pub/sub.
type SyncBroker struct {
	client redis.UniversalClient
	prefix string
	buffer int
	logger *slog.Logger
}

// SyncBrokerOptions groups dependencies for NewSyncBroker.
type SyncBrokerOptions struct {
	Client redis.UniversalClient
	Prefix string
	Buffer int
	Logger *slog.Logger
}

// NewSyncBroker creates a broker over an existing client.
func NewSyncBroker(opts SyncBrokerOptions) *SyncBroker {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = broadcast.DefaultBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncBroker{client: opts.Client, prefix: prefix, buffer: buffer, logger: logger}
}

// Open subscribes to the named channel. The subscription is confirmed before
// Open returns, so posts made afterwards by other handles are not missed.
func (b *SyncBroker) Open(ctx context.Context, name string) (ports.SyncChannel, error) {
	if b.client == nil {
		return nil, errors.New("redis client is required")
	}
	if name == "" {
		return nil, errors.New("channel name is required")
	}

	topic := b.prefix + name
	ps := b.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	h := &handle{
		client: b.client,
		ps:     ps,
		topic:  topic,
		id:     uuid.NewString(),
		out:    make(chan string, b.buffer),
		done:   make(chan struct{}),
		logger: b.logger.With("channel", topic),
	}
	h.wg.Add(1)
	go h.pump()
	return h, nil
}

type handle struct {
	client redis.UniversalClient
	ps     *redis.PubSub
	topic  string
	id     string
	out    chan string
	done   chan struct{}
	logger *slog.Logger

	wg   sync.WaitGroup
	once sync.Once
}

func (h *handle) pump() {
	defer h.wg.Done()
	defer close(h.out)

	for msg := range h.ps.Channel() {
		var env broadcast.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.logger.Warn("dropping malformed sync message", "error", err)
			continue
		}
		if env.Sender == h.id {
			continue
		}
		select {
		case h.out <- env.Data:
		case <-h.done:
			return
		default:
			h.logger.Warn("sync channel queue full, dropping message")
		}
	}
}

func (h *handle) Post(ctx context.Context, data string) error {
	select {
	case <-h.done:
		return broadcast.ErrClosed
	default:
	}

	payload, err := json.Marshal(broadcast.Envelope{Sender: h.id, Data: data})
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := h.client.Publish(ctx, h.topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", h.topic, err)
	}
	return nil
}

func (h *handle) Messages() <-chan string { return h.out }

func (h *handle) Close() error {
	var err error
	h.once.Do(func() {
		close(h.done)
		err = h.ps.Close()
		h.wg.Wait()
	})
	return err
}
