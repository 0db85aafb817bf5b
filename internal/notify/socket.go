package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
)

// statusEventName is the socket.io event carrying lifecycle payloads.
const statusEventName = "pipeline:status"

// SocketNotifier emits lifecycle events over a socket.io connection.
type SocketNotifier struct {
	io        *socket.Socket
	connected atomic.Bool
}

// NewSocket connects to a socket.io endpoint. The connection is established
// in the background; events emitted before it is up are dropped.
func NewSocket(ctx context.Context, rawURL string, namespace string) (*SocketNotifier, error) {
	logger := ctxlog.FromContext(ctx).With("notify_url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if namespace == "" {
		namespace = "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	n := &SocketNotifier{io: io}

	io.On(types.EventName("connect"), func(...any) {
		n.connected.Store(true)
		logger.Debug("Status stream connected.", "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Warn("Status stream connection failed.", "error", fmt.Sprint(errs...))
	})
	io.On(types.EventName("disconnect"), func(...any) {
		n.connected.Store(false)
	})

	io.Connect()
	return n, nil
}

// Emit sends one lifecycle event. Events are dropped while disconnected.
func (n *SocketNotifier) Emit(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	if !n.connected.Load() {
		logger.Debug("Status stream not connected, dropping event.", "job", ev.Job, "status", string(ev.Status))
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("Failed to encode status event.", "error", err)
		return
	}

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		logger.Warn("Failed to encode status event.", "error", err)
		return
	}
	n.io.Emit(statusEventName, data)
}

// Close disconnects the status stream.
func (n *SocketNotifier) Close() {
	n.io.Disconnect()
}
