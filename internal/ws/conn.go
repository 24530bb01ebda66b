package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"ride_share/pkg/logger"
)

// Conn wraps one live transport connection. Identity (userID, tripID)
// is bound on join and only ever touched under the hub mutex. The Send
// channel is never closed; shutdown is signalled through done so that
// a broadcast racing a disconnect can never panic on a closed channel.
type Conn struct {
	ID   uuid.UUID
	Send chan Event

	hub  *Hub
	sock *websocket.Conn
	log  logger.Logger

	userID uuid.UUID
	tripID uuid.UUID

	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(hub *Hub, sock *websocket.Conn, log logger.Logger) *Conn {
	return &Conn{
		ID:   uuid.New(),
		Send: make(chan Event, hub.opts.SendBufferSize),
		hub:  hub,
		sock: sock,
		log:  log,
		done: make(chan struct{}),
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sock != nil {
			_ = c.sock.Close()
		}
	})
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump consumes frames until the peer goes away, then triggers the
// implicit leave. Runs on the handler goroutine.
func (c *Conn) ReadPump() {
	defer c.hub.Disconnect(c)

	_ = c.sock.SetReadDeadline(time.Now().Add(c.hub.opts.HeartbeatTimeout))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(c.hub.opts.HeartbeatTimeout))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected socket close", "conn_id", c.ID, "error", err)
			}
			return
		}
		c.hub.HandleEvent(c, raw)
	}
}

// WritePump serializes outbound events and keeps the heartbeat going.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(c.hub.opts.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		if c.sock != nil {
			_ = c.sock.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case ev := <-c.Send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.sock.WriteJSON(ev); err != nil {
				c.log.Warn("socket write failed", "conn_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
