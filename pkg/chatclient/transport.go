package chatclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"ride_share/internal/ws"
)

// Transport is the socket layer the session runs on. Events() delivers
// inbound frames until the transport gives up; the channel closing
// means the connection is gone for good. The reconnect handler fires
// after a dropped connection is re-established, before reads resume,
// so the session can restore its room state.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ev ws.Event) error
	Events() <-chan ws.Event
	SetReconnectHandler(fn func())
	Close() error
}

// TransportOptions mirror the server's reconnect contract: a bounded
// number of attempts with a fixed pause between them.
type TransportOptions struct {
	URL               string
	ReconnectAttempts int
	ReconnectBackoff  time.Duration
}

func DefaultTransportOptions(url string) TransportOptions {
	return TransportOptions{
		URL:               url,
		ReconnectAttempts: 5,
		ReconnectBackoff:  time.Second,
	}
}

type wsTransport struct {
	opts TransportOptions

	mu          sync.Mutex
	sock        *websocket.Conn
	closed      bool
	onReconnect func()

	events chan ws.Event
}

func NewTransport(opts TransportOptions) Transport {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = time.Second
	}
	return &wsTransport{
		opts:   opts,
		events: make(chan ws.Event, 64),
	}
}

func (t *wsTransport) Connect(ctx context.Context) error {
	sock, _, err := websocket.DefaultDialer.DialContext(ctx, t.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.opts.URL, err)
	}

	t.mu.Lock()
	t.sock = sock
	t.mu.Unlock()

	go t.readLoop()
	return nil
}

func (t *wsTransport) Send(ev ws.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.sock == nil {
		return fmt.Errorf("transport is closed")
	}
	return t.sock.WriteJSON(ev)
}

func (t *wsTransport) Events() <-chan ws.Event {
	return t.events
}

func (t *wsTransport) SetReconnectHandler(fn func()) {
	t.mu.Lock()
	t.onReconnect = fn
	t.mu.Unlock()
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	sock := t.sock
	t.mu.Unlock()

	if sock != nil {
		return sock.Close()
	}
	return nil
}

func (t *wsTransport) readLoop() {
	for {
		t.mu.Lock()
		sock := t.sock
		closed := t.closed
		t.mu.Unlock()

		if closed || sock == nil {
			close(t.events)
			return
		}

		var ev ws.Event
		if err := sock.ReadJSON(&ev); err != nil {
			if t.isClosed() {
				close(t.events)
				return
			}
			if !t.reconnect() {
				close(t.events)
				return
			}
			continue
		}

		t.events <- ev
	}
}

func (t *wsTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// reconnect retries the dial a bounded number of times. A fresh socket
// replaces the dead one and the OnReconnect hook fires so the caller
// can restore room state.
func (t *wsTransport) reconnect() bool {
	for attempt := 1; attempt <= t.opts.ReconnectAttempts; attempt++ {
		time.Sleep(t.opts.ReconnectBackoff)

		if t.isClosed() {
			return false
		}

		sock, _, err := websocket.DefaultDialer.Dial(t.opts.URL, nil)
		if err != nil {
			continue
		}

		t.mu.Lock()
		t.sock = sock
		fn := t.onReconnect
		t.mu.Unlock()

		if fn != nil {
			fn()
		}
		return true
	}
	return false
}
