package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"ride_share/pkg/logger"
)

func newTestHub() *Hub {
	return NewHub(DefaultOptions(), logger.Nop())
}

func newTestConn(t *testing.T, h *Hub) *Conn {
	t.Helper()
	c := NewConn(h, nil, logger.Nop())
	h.Register(c)
	return c
}

func recvEvent(t *testing.T, c *Conn) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed while waiting for event")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case ev := <-c.Send:
		t.Fatalf("expected no event, got %q", ev.Event)
	default:
	}
}

func drain(c *Conn) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func TestJoinConfirmsToJoinerOnly(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	c1 := newTestConn(t, h)
	c2 := newTestConn(t, h)

	h.Join(c1, tripID, uuid.New())

	ev := recvEvent(t, c1)
	if ev.Event != EventJoinedTrip {
		t.Fatalf("expected %q, got %q", EventJoinedTrip, ev.Event)
	}
	assertNoEvent(t, c2)
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()
	userID := uuid.New()

	c := newTestConn(t, h)
	h.Join(c, tripID, userID)
	h.Join(c, tripID, userID)

	if got := h.RoomSize(tripID); got != 1 {
		t.Fatalf("expected room size 1 after double join, got %d", got)
	}
}

func TestJoinSwitchesRoom(t *testing.T) {
	h := newTestHub()
	tripA := uuid.New()
	tripB := uuid.New()

	c := newTestConn(t, h)
	h.Join(c, tripA, uuid.New())
	h.Join(c, tripB, uuid.New())

	if got := h.RoomSize(tripA); got != 0 {
		t.Fatalf("expected old room to be empty, got %d members", got)
	}
	if got := h.RoomSize(tripB); got != 1 {
		t.Fatalf("expected new room size 1, got %d", got)
	}
}

func TestBroadcastIsScopedToRoom(t *testing.T) {
	h := newTestHub()
	tripA := uuid.New()
	tripB := uuid.New()

	c1 := newTestConn(t, h)
	c2 := newTestConn(t, h)
	c3 := newTestConn(t, h)

	h.Join(c1, tripA, uuid.New())
	h.Join(c2, tripA, uuid.New())
	h.Join(c3, tripB, uuid.New())
	drain(c1)
	drain(c2)
	drain(c3)

	ev, _ := NewEvent(EventNewMessage, map[string]string{"content": "hi"})
	h.BroadcastToRoom(tripA, ev, uuid.Nil)

	if got := recvEvent(t, c1).Event; got != EventNewMessage {
		t.Fatalf("expected %q, got %q", EventNewMessage, got)
	}
	if got := recvEvent(t, c2).Event; got != EventNewMessage {
		t.Fatalf("expected %q, got %q", EventNewMessage, got)
	}
	assertNoEvent(t, c3)
}

func TestSendMessageReachesWholeRoomIncludingSender(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	sender := newTestConn(t, h)
	peer := newTestConn(t, h)
	h.Join(sender, tripID, uuid.New())
	h.Join(peer, tripID, uuid.New())
	drain(sender)
	drain(peer)

	raw := []byte(fmt.Sprintf(`{"event":"send-message","data":{"tripId":%q,"content":"hello"}}`, tripID))
	h.HandleEvent(sender, raw)

	for _, c := range []*Conn{sender, peer} {
		ev := recvEvent(t, c)
		if ev.Event != EventNewMessage {
			t.Fatalf("expected %q, got %q", EventNewMessage, ev.Event)
		}
	}
}

func TestSendMessageStampsMissingTimestamp(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	c := newTestConn(t, h)
	h.Join(c, tripID, uuid.New())
	drain(c)

	raw := []byte(fmt.Sprintf(`{"event":"send-message","data":{"tripId":%q,"content":"hello"}}`, tripID))
	h.HandleEvent(c, raw)

	ev := recvEvent(t, c)
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	ts, ok := payload["timestamp"].(string)
	if !ok || ts == "" {
		t.Fatal("expected a server-stamped timestamp")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestSendMessageKeepsClientTimestamp(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	c := newTestConn(t, h)
	h.Join(c, tripID, uuid.New())
	drain(c)

	raw := []byte(fmt.Sprintf(`{"event":"send-message","data":{"tripId":%q,"timestamp":"2026-01-02T03:04:05Z"}}`, tripID))
	h.HandleEvent(c, raw)

	ev := recvEvent(t, c)
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("client timestamp was overwritten: %v", payload["timestamp"])
	}
}

func TestTypingExcludesSender(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()
	typistID := uuid.New()

	typist := newTestConn(t, h)
	peer := newTestConn(t, h)
	h.Join(typist, tripID, typistID)
	h.Join(peer, tripID, uuid.New())
	drain(typist)
	drain(peer)

	raw := []byte(fmt.Sprintf(`{"event":"typing","data":{"tripId":%q,"userId":%q,"userName":"Anna","isTyping":true}}`, tripID, typistID))
	h.HandleEvent(typist, raw)

	ev := recvEvent(t, peer)
	if ev.Event != EventUserTyping {
		t.Fatalf("expected %q, got %q", EventUserTyping, ev.Event)
	}
	var payload UserTypingPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.UserID != typistID || payload.UserName != "Anna" || !payload.IsTyping {
		t.Fatalf("unexpected typing payload: %+v", payload)
	}
	assertNoEvent(t, typist)
}

func TestDisconnectNotifiesRoom(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()
	leavingID := uuid.New()

	leaving := newTestConn(t, h)
	staying := newTestConn(t, h)
	h.Join(leaving, tripID, leavingID)
	h.Join(staying, tripID, uuid.New())
	drain(leaving)
	drain(staying)

	h.Disconnect(leaving)

	ev := recvEvent(t, staying)
	if ev.Event != EventUserLeft {
		t.Fatalf("expected %q, got %q", EventUserLeft, ev.Event)
	}
	var payload UserLeftPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.UserID != leavingID {
		t.Fatalf("expected user %s in user-left, got %s", leavingID, payload.UserID)
	}
	if got := h.RoomSize(tripID); got != 1 {
		t.Fatalf("expected room size 1 after disconnect, got %d", got)
	}
}

func TestDisconnectWithoutJoinIsQuiet(t *testing.T) {
	h := newTestHub()

	c := newTestConn(t, h)
	bystander := newTestConn(t, h)

	h.Disconnect(c)
	assertNoEvent(t, bystander)
}

func TestMalformedJoinErrorIsScoped(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	offender := newTestConn(t, h)
	bystander := newTestConn(t, h)
	h.Join(bystander, tripID, uuid.New())
	drain(bystander)

	h.HandleEvent(offender, []byte(`{"event":"join-trip","data":{"tripId":"not-a-uuid"}}`))

	ev := recvEvent(t, offender)
	if ev.Event != EventError {
		t.Fatalf("expected %q, got %q", EventError, ev.Event)
	}
	assertNoEvent(t, bystander)

	// The hub must keep serving after a protocol error.
	h.Join(offender, tripID, uuid.New())
	if got := h.RoomSize(tripID); got != 2 {
		t.Fatalf("expected room size 2 after recovery, got %d", got)
	}
}

func TestNewHubDefaultsEachOptionSeparately(t *testing.T) {
	h := NewHub(Options{HeartbeatInterval: 5 * time.Second, HeartbeatTimeout: 11 * time.Second}, logger.Nop())

	if h.opts.HeartbeatInterval != 5*time.Second {
		t.Fatalf("caller-supplied heartbeat interval was discarded: %v", h.opts.HeartbeatInterval)
	}
	if h.opts.HeartbeatTimeout != 11*time.Second {
		t.Fatalf("caller-supplied heartbeat timeout was discarded: %v", h.opts.HeartbeatTimeout)
	}
	if h.opts.SendBufferSize != DefaultOptions().SendBufferSize {
		t.Fatalf("missing send buffer size was not defaulted: %d", h.opts.SendBufferSize)
	}
}

// Disconnects racing room broadcasts must never bring the hub down:
// the user-left fan-out of one leaving member targets peers that may
// be tearing down at the same moment.
func TestConcurrentDisconnectsDoNotPanic(t *testing.T) {
	h := newTestHub()
	tripID := uuid.New()

	const members = 32
	conns := make([]*Conn, members)
	for i := range conns {
		conns[i] = newTestConn(t, h)
		h.Join(conns[i], tripID, uuid.New())
	}

	ev, _ := NewEvent(EventNewMessage, map[string]string{"content": "racing"})

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *Conn) {
			defer wg.Done()
			h.Disconnect(c)
		}(c)
	}
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.BroadcastToRoom(tripID, ev, uuid.Nil)
		}()
	}
	wg.Wait()

	if got := h.RoomSize(tripID); got != 0 {
		t.Fatalf("expected empty room after all disconnects, got %d members", got)
	}
}

func TestEmitAfterDisconnectIsDropped(t *testing.T) {
	h := newTestHub()
	c := newTestConn(t, h)

	h.Disconnect(c)
	h.emitTo(c, Event{Event: EventNewMessage})

	assertNoEvent(t, c)
}

func TestMalformedFrameDoesNotPanic(t *testing.T) {
	h := newTestHub()
	c := newTestConn(t, h)

	h.HandleEvent(c, []byte(`not json at all`))

	ev := recvEvent(t, c)
	if ev.Event != EventError {
		t.Fatalf("expected %q, got %q", EventError, ev.Event)
	}
}
