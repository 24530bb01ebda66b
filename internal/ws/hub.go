package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"ride_share/pkg/logger"
)

// Options control the connection pumps. Defaults follow the transport
// contract: 25s heartbeat, 60s dead-peer timeout.
type Options struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	SendBufferSize    int
}

func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 25 * time.Second,
		HeartbeatTimeout:  60 * time.Second,
		SendBufferSize:    64,
	}
}

// Hub is the connection registry and room router. Rooms are derived
// groupings keyed by trip; membership lives only for the life of a
// connection. All membership mutation happens behind the mutex.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*Conn
	rooms map[string]map[uuid.UUID]*Conn

	opts Options
	log  logger.Logger
}

func NewHub(opts Options, log logger.Logger) *Hub {
	def := DefaultOptions()
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = def.HeartbeatInterval
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = def.HeartbeatTimeout
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = def.SendBufferSize
	}
	return &Hub{
		conns: make(map[uuid.UUID]*Conn),
		rooms: make(map[string]map[uuid.UUID]*Conn),
		opts:  opts,
		log:   log,
	}
}

// RoomKey is the room naming scheme shared with clients.
func RoomKey(tripID uuid.UUID) string {
	return "trip-" + tripID.String()
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	h.log.Debug("connection registered", "conn_id", c.ID)
}

// Join binds the connection to the trip room and records its identity
// for later disconnect handling. Rejoining the same room is a no-op
// beyond rebinding metadata. A confirmation goes back to the joining
// connection only.
func (h *Hub) Join(c *Conn, tripID, userID uuid.UUID) {
	key := RoomKey(tripID)

	h.mu.Lock()
	if c.tripID != uuid.Nil && c.tripID != tripID {
		h.removeFromRoomLocked(c, RoomKey(c.tripID))
	}
	if h.rooms[key] == nil {
		h.rooms[key] = make(map[uuid.UUID]*Conn)
	}
	h.rooms[key][c.ID] = c
	c.userID = userID
	c.tripID = tripID
	h.mu.Unlock()

	h.log.Info("user joined trip room", "user_id", userID, "room", key)

	ev, err := NewEvent(EventJoinedTrip, JoinPayload{TripID: tripID, UserID: userID})
	if err != nil {
		h.log.Error("failed to encode join confirmation", "error", err)
		return
	}
	h.emitTo(c, ev)
}

// Disconnect removes the connection from every registry. If it had
// joined a room, the remaining members get a user-left notification.
func (h *Hub) Disconnect(c *Conn) {
	h.mu.Lock()
	tripID := c.tripID
	userID := c.userID
	if tripID != uuid.Nil {
		h.removeFromRoomLocked(c, RoomKey(tripID))
	}
	delete(h.conns, c.ID)
	h.mu.Unlock()

	c.close()

	if tripID == uuid.Nil {
		return
	}

	ev, err := NewEvent(EventUserLeft, UserLeftPayload{UserID: userID})
	if err != nil {
		h.log.Error("failed to encode user-left event", "error", err)
		return
	}
	h.BroadcastToRoom(tripID, ev, c.ID)
	h.log.Info("user left trip room", "user_id", userID, "room", RoomKey(tripID))
}

func (h *Hub) removeFromRoomLocked(c *Conn, key string) {
	if members, ok := h.rooms[key]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
}

// BroadcastToRoom fans the event out to every connection in the trip
// room except the excluded one (uuid.Nil excludes nobody). Delivery is
// fire-and-forget: a member with a full send buffer is skipped.
func (h *Hub) BroadcastToRoom(tripID uuid.UUID, ev Event, exclude uuid.UUID) {
	key := RoomKey(tripID)

	h.mu.Lock()
	members := make([]*Conn, 0, len(h.rooms[key]))
	for id, c := range h.rooms[key] {
		if id == exclude {
			continue
		}
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		h.emitTo(c, ev)
	}
}

// emitTo never blocks and never panics: the Send channel stays open for
// the life of the process, so a broadcast racing a disconnect at worst
// queues an event nobody will read.
func (h *Hub) emitTo(c *Conn, ev Event) {
	if c.closed() {
		return
	}
	select {
	case c.Send <- ev:
	default:
		h.log.Warn("send buffer full, dropping event", "conn_id", c.ID, "event", ev.Event)
	}
}

func (h *Hub) emitError(c *Conn, message string) {
	ev, err := NewEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.emitTo(c, ev)
}

// HandleEvent dispatches one inbound frame. Protocol errors are scoped
// to the offending connection; nothing here may take down the hub.
func (h *Hub) HandleEvent(c *Conn, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic in event handler", "conn_id", c.ID, "panic", r)
		}
	}()

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.log.Warn("malformed frame", "conn_id", c.ID, "error", err)
		h.emitError(c, "malformed event")
		return
	}

	switch ev.Event {
	case EventJoinTrip:
		h.handleJoin(c, ev.Data)
	case EventSendMessage:
		h.handleSendMessage(c, ev.Data)
	case EventTyping:
		h.handleTyping(c, ev.Data)
	default:
		h.log.Debug("unknown event dropped", "conn_id", c.ID, "event", ev.Event)
	}
}

func (h *Hub) handleJoin(c *Conn, data json.RawMessage) {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TripID == uuid.Nil || payload.UserID == uuid.Nil {
		h.log.Warn("invalid join payload", "conn_id", c.ID)
		h.emitError(c, "failed to join trip room")
		return
	}
	h.Join(c, payload.TripID, payload.UserID)
}

// handleSendMessage rebroadcasts the payload to the whole room
// including the sender, stamping a timestamp if the client omitted
// one. The socket is not the system of record: the message was already
// persisted through the REST API before this event was emitted.
func (h *Hub) handleSendMessage(c *Conn, data json.RawMessage) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		h.emitError(c, "failed to send message")
		return
	}

	tripStr, _ := payload["tripId"].(string)
	tripID, err := uuid.Parse(tripStr)
	if err != nil {
		h.emitError(c, "failed to send message")
		return
	}

	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	ev, err := NewEvent(EventNewMessage, payload)
	if err != nil {
		h.emitError(c, "failed to send message")
		return
	}
	h.BroadcastToRoom(tripID, ev, uuid.Nil)
}

func (h *Hub) handleTyping(c *Conn, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TripID == uuid.Nil {
		h.log.Warn("invalid typing payload", "conn_id", c.ID)
		return
	}

	ev, err := NewEvent(EventUserTyping, UserTypingPayload{
		UserID:   payload.UserID,
		UserName: payload.UserName,
		IsTyping: payload.IsTyping,
	})
	if err != nil {
		return
	}
	h.BroadcastToRoom(payload.TripID, ev, c.ID)
}

// RoomSize reports current membership, mainly for health reporting.
func (h *Hub) RoomSize(tripID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[RoomKey(tripID)])
}
