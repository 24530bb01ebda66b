package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/internal/ws"
)

// State tracks the session lifecycle. Transitions only move forward
// through Open and back to Closed through Close or connection loss.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateLoadingHistory
	StateLive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLoadingHistory:
		return "loading_history"
	case StateLive:
		return "live"
	default:
		return "closed"
	}
}

// SessionConfig fixes the conversation the session is bound to: one
// trip, the local user, and the counterparty.
type SessionConfig struct {
	TripID      uuid.UUID
	UserID      uuid.UUID
	UserName    string
	OtherUserID uuid.UUID

	// TypingWindow is how long after the last keystroke the typing
	// indicator is retracted. Zero means the 1s default.
	TypingWindow time.Duration
}

// SessionHandlers receive session output. Nil handlers are skipped.
// They are called from the session's read goroutine, so they must not
// block.
type SessionHandlers struct {
	OnMessage  func(msg domain.Message)
	OnTyping   func(userID uuid.UUID, userName string, isTyping bool)
	OnUserLeft func(userID uuid.UUID)
	OnUnread   func(count int)
	OnError    func(message string)

	// OnRefresh fires after Close so the surrounding view can re-pull
	// its conversation list.
	OnRefresh func()
}

// wireMessage is the socket payload for chat messages, distinct from
// the REST shape: camelCase keys and a flattened sender name.
type wireMessage struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"tripId"`
	SenderID    uuid.UUID `json:"senderId"`
	SenderName  string    `json:"senderName"`
	ReceiverID  uuid.UUID `json:"receiverId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	Timestamp   time.Time `json:"timestamp"`
}

func (w wireMessage) toDomain() domain.Message {
	msg := domain.Message{
		ID:          w.ID,
		TripID:      w.TripID,
		SenderID:    w.SenderID,
		ReceiverID:  w.ReceiverID,
		Content:     w.Content,
		MessageType: w.MessageType,
		CreatedAt:   w.Timestamp,
	}
	if w.SenderName != "" {
		msg.Sender = &domain.UserSummary{ID: w.SenderID, Name: w.SenderName}
	}
	return msg
}

// Session is a live view over one conversation. It joins the trip room
// over the socket, loads durable history over REST, and keeps the two
// merged: every message passes a dedupe check, so the same message
// arriving over both paths surfaces exactly once.
type Session struct {
	cfg       SessionConfig
	transport Transport
	api       MessageAPI
	handlers  SessionHandlers

	mu           sync.Mutex
	state        State
	messages     []domain.Message
	seen         map[uuid.UUID]struct{}
	typingActive bool
	typingTimer  *time.Timer
}

func NewSession(cfg SessionConfig, transport Transport, api MessageAPI, handlers SessionHandlers) *Session {
	if cfg.TypingWindow <= 0 {
		cfg.TypingWindow = time.Second
	}
	return &Session{
		cfg:       cfg,
		transport: transport,
		api:       api,
		handlers:  handlers,
		state:     StateClosed,
		seen:      make(map[uuid.UUID]struct{}),
	}
}

// Open connects, joins the trip room, and loads history. The unread
// counter is zeroed optimistically before the server confirms the
// mark-read, then re-notified once it does.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.mu.Unlock()
		return fmt.Errorf("session already open")
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.transport.SetReconnectHandler(s.rejoin)

	// The history fetch starts immediately; it must not wait on the
	// socket handshake.
	type histResult struct {
		messages []domain.Message
		err      error
	}
	histCh := make(chan histResult, 1)
	go func() {
		messages, err := s.api.History(ctx, s.cfg.TripID, s.cfg.OtherUserID)
		histCh <- histResult{messages: messages, err: err}
	}()

	if err := s.transport.Connect(ctx); err != nil {
		s.setState(StateClosed)
		return err
	}

	if err := s.sendJoin(); err != nil {
		s.setState(StateClosed)
		s.transport.Close()
		return err
	}

	s.setState(StateLoadingHistory)

	// Live events start flowing while history loads; the dedupe set
	// reconciles the overlap.
	go s.readLoop()

	hist := <-histCh
	if hist.err != nil {
		// State first: readLoop sees Closed when the transport drops and
		// stays quiet, leaving the returned error as the only report.
		s.setState(StateClosed)
		s.transport.Close()
		return fmt.Errorf("failed to load history: %w", hist.err)
	}
	for _, msg := range hist.messages {
		s.ingest(msg, false)
	}

	s.notifyUnread(0)
	s.setState(StateLive)

	// The mark-read write is fire-and-forget: a slow server must not
	// hold the session out of Live. Failure keeps the optimistic zero.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.api.MarkConversationRead(ctx, s.cfg.TripID, s.cfg.OtherUserID); err == nil {
			s.notifyUnread(0)
		}
	}()

	return nil
}

// Send persists the message over REST first, then fans it out over the
// socket, then appends it locally. The room broadcast echoes it back to
// this session too; the dedupe set absorbs the echo.
func (s *Session) Send(ctx context.Context, content, messageType string) (*domain.Message, error) {
	if s.State() != StateLive {
		return nil, fmt.Errorf("session is not live")
	}

	msg, err := s.api.Send(ctx, s.cfg.TripID, s.cfg.OtherUserID, content, messageType)
	if err != nil {
		return nil, err
	}

	wire := wireMessage{
		ID:          msg.ID,
		TripID:      msg.TripID,
		SenderID:    msg.SenderID,
		SenderName:  s.cfg.UserName,
		ReceiverID:  msg.ReceiverID,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		Timestamp:   msg.CreatedAt,
	}
	ev, err := ws.NewEvent(ws.EventSendMessage, wire)
	if err == nil {
		err = s.transport.Send(ev)
	}
	if err != nil {
		// The write is durable; only the realtime fan-out failed.
		s.notifyError("message saved but not broadcast")
	}

	s.ingest(*msg, true)
	return msg, nil
}

// Typing reports keyboard activity. The first call in a burst emits the
// indicator; it is retracted automatically after TypingWindow of
// silence.
func (s *Session) Typing() {
	if s.State() != StateLive {
		return
	}

	s.mu.Lock()
	wasActive := s.typingActive
	s.typingActive = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.cfg.TypingWindow, s.stopTyping)
	s.mu.Unlock()

	if !wasActive {
		s.sendTyping(true)
	}
}

func (s *Session) stopTyping() {
	s.mu.Lock()
	if !s.typingActive {
		s.mu.Unlock()
		return
	}
	s.typingActive = false
	s.mu.Unlock()

	s.sendTyping(false)
}

// Close retracts any live typing indicator, then tears the socket down.
// The server's read loop notices and emits user-left to the room.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	active := s.typingActive
	s.typingActive = false
	s.mu.Unlock()

	if active {
		s.sendTyping(false)
	}
	err := s.transport.Close()
	if s.handlers.OnRefresh != nil {
		s.handlers.OnRefresh()
	}
	return err
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a snapshot of the merged timeline.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) sendJoin() error {
	ev, err := ws.NewEvent(ws.EventJoinTrip, ws.JoinPayload{
		TripID: s.cfg.TripID,
		UserID: s.cfg.UserID,
	})
	if err != nil {
		return err
	}
	return s.transport.Send(ev)
}

func (s *Session) sendTyping(isTyping bool) {
	ev, err := ws.NewEvent(ws.EventTyping, ws.TypingPayload{
		TripID:   s.cfg.TripID,
		UserID:   s.cfg.UserID,
		UserName: s.cfg.UserName,
		IsTyping: isTyping,
	})
	if err != nil {
		return
	}
	if err := s.transport.Send(ev); err != nil {
		s.notifyError("failed to send typing indicator")
	}
}

// rejoin runs on the transport's reconnect hook: membership died with
// the old connection, so the room must be re-entered and anything
// missed during the gap backfilled from the durable ledger.
func (s *Session) rejoin() {
	if err := s.sendJoin(); err != nil {
		s.notifyError("failed to rejoin trip room")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := s.api.History(ctx, s.cfg.TripID, s.cfg.OtherUserID)
	if err != nil {
		s.notifyError("failed to refresh history after reconnect")
		return
	}
	for _, msg := range history {
		s.ingest(msg, true)
	}
}

func (s *Session) readLoop() {
	for ev := range s.transport.Events() {
		s.handleEvent(ev)
	}

	// Channel closed: either we closed the session, or the transport
	// ran out of reconnect attempts.
	s.mu.Lock()
	wasLive := s.state != StateClosed
	s.state = StateClosed
	s.mu.Unlock()

	if wasLive {
		s.notifyError("connection lost")
	}
}

func (s *Session) handleEvent(ev ws.Event) {
	switch ev.Event {
	case ws.EventNewMessage:
		var wire wireMessage
		if err := json.Unmarshal(ev.Data, &wire); err != nil || wire.ID == uuid.Nil {
			return
		}
		if wire.TripID != s.cfg.TripID {
			return
		}
		incoming := wire.SenderID != s.cfg.UserID
		if s.ingest(wire.toDomain(), true) && incoming {
			// The conversation is on screen, so the new message is read
			// the moment it lands.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if _, err := s.api.MarkConversationRead(ctx, s.cfg.TripID, s.cfg.OtherUserID); err == nil {
					s.notifyUnread(0)
				}
			}()
		}

	case ws.EventUserTyping:
		var payload ws.UserTypingPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
		if payload.UserID == s.cfg.UserID {
			return
		}
		if s.handlers.OnTyping != nil {
			s.handlers.OnTyping(payload.UserID, payload.UserName, payload.IsTyping)
		}

	case ws.EventUserLeft:
		var payload ws.UserLeftPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
		if s.handlers.OnUserLeft != nil {
			s.handlers.OnUserLeft(payload.UserID)
		}

	case ws.EventError:
		var payload ws.ErrorPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
		s.notifyError(payload.Message)
	}
}

// ingest appends the message unless its id has been seen before.
// Returns true when the message was new. notify controls whether
// OnMessage fires; the initial history load stays silent.
func (s *Session) ingest(msg domain.Message, notify bool) bool {
	s.mu.Lock()
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if notify && s.handlers.OnMessage != nil {
		s.handlers.OnMessage(msg)
	}
	return true
}

func (s *Session) notifyUnread(count int) {
	if s.handlers.OnUnread != nil {
		s.handlers.OnUnread(count)
	}
}

func (s *Session) notifyError(message string) {
	if s.handlers.OnError != nil {
		s.handlers.OnError(message)
	}
}
