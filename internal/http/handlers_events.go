package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thalysonbl/authgate/internal/ports"
)

// EventHandlers streams sync notifications to browser tabs.
type EventHandlers struct {
	Broker      ports.SyncBroker
	ChannelName string
	Heartbeat   time.Duration
	Logger      *slog.Logger
}

func (h *EventHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Stream forwards messages posted on this browser's channel as server-sent events.
// GET /events.
func (h *EventHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Broker == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: errCodeSyncUnavailable,
			Err:     errors.New("sync broker not configured"),
		})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	name := deviceChannel(ctx, h.ChannelName)
	ch, err := h.Broker.Open(ctx, name)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: errCodeSyncUnavailable, Err: err})
		return
	}
	defer func() {
		if cerr := ch.Close(); cerr != nil {
			h.logger().WarnContext(ctx, "close sync channel", "channel", name, "error", cerr)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = sseHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, werr := fmt.Fprint(w, ": ping\n\n"); werr != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch.Messages():
			if !ok {
				return
			}
			if _, werr := fmt.Fprintf(w, "event: sync\ndata: %s\n\n", msg); werr != nil {
				h.logger().WarnContext(ctx, "client disconnected during event stream", "channel", name)
				return
			}
			flusher.Flush()
		}
	}
}
