package broadcast

// Package broadcast provides an in-process implementation of the cross-tab
// sync channel. Handles opened on the same name behave like BroadcastChannel
// objects in tabs of one browser: a post reaches every other handle, never
// the sender.

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/thalysonbl/authgate/internal/ports"
)

// DefaultBuffer is the per-handle queue depth. Posts to a full queue are dropped.
const DefaultBuffer = 16

// ErrClosed is returned when posting on a closed handle.
var ErrClosed = errors.New("sync channel closed")

// Envelope is the wire form of one broadcast message.
type Envelope struct {
	Sender string `json:"sender"`
	Data   string `json:"data"`
}

var _ ports.SyncBroker = (*Hub)(nil)

// Hub routes posts between handles in the same process.
type Hub struct {
	buffer int

	mu   sync.Mutex
	subs map[string]map[*handle]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{buffer: DefaultBuffer, subs: make(map[string]map[*handle]struct{})}
}

// Open returns a new handle on the named channel.
func (h *Hub) Open(_ context.Context, name string) (ports.SyncChannel, error) {
	if name == "" {
		return nil, errors.New("channel name is required")
	}
	hd := &handle{
		hub:  h,
		name: name,
		id:   uuid.NewString(),
		ch:   make(chan string, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[name]
	if !ok {
		set = make(map[*handle]struct{})
		h.subs[name] = set
	}
	set[hd] = struct{}{}
	return hd, nil
}

// Subscribers reports how many open handles exist on name.
func (h *Hub) Subscribers(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[name])
}

func (h *Hub) deliver(from *handle, env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for hd := range h.subs[from.name] {
		if hd == from {
			continue
		}
		select {
		case hd.ch <- env.Data:
		default:
		}
	}
}

func (h *Hub) remove(hd *handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[hd.name]
	delete(set, hd)
	if len(set) == 0 {
		delete(h.subs, hd.name)
	}
	close(hd.ch)
}

type handle struct {
	hub  *Hub
	name string
	id   string
	ch   chan string

	mu     sync.Mutex
	closed bool
}

func (hd *handle) Post(_ context.Context, data string) error {
	hd.mu.Lock()
	closed := hd.closed
	hd.mu.Unlock()
	if closed {
		return ErrClosed
	}
	hd.hub.deliver(hd, Envelope{Sender: hd.id, Data: data})
	return nil
}

func (hd *handle) Messages() <-chan string { return hd.ch }

func (hd *handle) Close() error {
	hd.mu.Lock()
	if hd.closed {
		hd.mu.Unlock()
		return nil
	}
	hd.closed = true
	hd.mu.Unlock()
	hd.hub.remove(hd)
	return nil
}
