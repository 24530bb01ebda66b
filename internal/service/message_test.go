package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	apperrors "ride_share/pkg/errors"
	"ride_share/pkg/logger"
)

// fakeMessageRepo keeps the ledger in memory with the same mark-read
// predicate the SQL uses: only unread rows owned by the receiver flip.
type fakeMessageRepo struct {
	messages []*domain.Message
	err      error
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if f.err != nil {
		return f.err
	}
	msg.ID = uuid.New()
	msg.IsRead = false
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeMessageRepo) ListBetween(ctx context.Context, tripID, userA, userB uuid.UUID) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Message
	for _, m := range f.messages {
		if m.TripID != tripID {
			continue
		}
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Message
	for _, m := range f.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, ids []uuid.UUID, receiverID uuid.UUID) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var count int64
	for _, m := range f.messages {
		if _, ok := wanted[m.ID]; !ok {
			continue
		}
		if m.ReceiverID != receiverID || m.IsRead {
			continue
		}
		m.IsRead = true
		count++
	}
	return count, nil
}

func (f *fakeMessageRepo) MarkConversationRead(ctx context.Context, tripID, otherUserID, receiverID uuid.UUID) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var count int64
	for _, m := range f.messages {
		if m.TripID == tripID && m.SenderID == otherUserID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

type fakeTripRepo struct {
	trips map[uuid.UUID]*domain.Trip
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	trip.ID = uuid.New()
	f.trips[trip.ID] = trip
	return nil
}

func (f *fakeTripRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	if trip, ok := f.trips[id]; ok {
		return trip, nil
	}
	return nil, apperrors.ErrTripNotFound
}

func (f *fakeTripRepo) List(ctx context.Context, filter domain.TripFilter, limit, offset int) ([]*domain.Trip, error) {
	return nil, nil
}

func (f *fakeTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Trip, error) {
	return nil, nil
}

func (f *fakeTripRepo) Update(ctx context.Context, trip *domain.Trip) error { return nil }
func (f *fakeTripRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUserRepo) CreateSession(ctx context.Context, session *domain.UserSession) error {
	return nil
}
func (f *fakeUserRepo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	return nil, apperrors.ErrNotFound
}
func (f *fakeUserRepo) RevokeSession(ctx context.Context, sessionID uuid.UUID, reason string) error {
	return nil
}

type messageFixture struct {
	svc      MessageService
	messages *fakeMessageRepo
	tripID   uuid.UUID
	alice    uuid.UUID
	bob      uuid.UUID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	tripID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	msgRepo := &fakeMessageRepo{}
	tripRepo := &fakeTripRepo{trips: map[uuid.UUID]*domain.Trip{
		tripID: {ID: tripID, DriverID: alice, FromCity: "Riga", ToCity: "Tallinn"},
	}}
	userRepo := &fakeUserRepo{users: map[uuid.UUID]*domain.User{
		alice: {ID: alice, Name: "Alice"},
		bob:   {ID: bob, Name: "Bob"},
	}}

	return &messageFixture{
		svc:      NewMessageService(msgRepo, tripRepo, userRepo, logger.Nop()),
		messages: msgRepo,
		tripID:   tripID,
		alice:    alice,
		bob:      bob,
	}
}

func (fx *messageFixture) seed(t *testing.T, senderID, receiverID uuid.UUID, content string) *domain.Message {
	t.Helper()
	msg := &domain.Message{
		TripID:      fx.tripID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: domain.MessageTypeText,
	}
	if err := fx.messages.Create(context.Background(), msg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return msg
}

func TestSendCreatesUnreadMessage(t *testing.T) {
	fx := newMessageFixture(t)

	msg, err := fx.svc.Send(context.Background(), fx.alice, fx.tripID, fx.bob, "  hello  ", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Content != "hello" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if msg.MessageType != domain.MessageTypeText {
		t.Fatalf("expected default type %q, got %q", domain.MessageTypeText, msg.MessageType)
	}
	if msg.IsRead {
		t.Fatal("new message must start unread")
	}
}

func TestSendValidation(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		sender   uuid.UUID
		trip     uuid.UUID
		receiver uuid.UUID
		content  string
		msgType  string
	}{
		{"empty content", fx.alice, fx.tripID, fx.bob, "   ", ""},
		{"self send", fx.alice, fx.tripID, fx.alice, "hi", ""},
		{"bad type", fx.alice, fx.tripID, fx.bob, "hi", "carrier_pigeon"},
		{"unknown trip", fx.alice, uuid.New(), fx.bob, "hi", ""},
		{"unknown receiver", fx.alice, fx.tripID, uuid.New(), "hi", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.Send(ctx, tc.sender, tc.trip, tc.receiver, tc.content, tc.msgType); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if len(fx.messages.messages) != 0 {
		t.Fatalf("rejected sends must not persist, found %d messages", len(fx.messages.messages))
	}
}

func TestMarkReadIsMonotonic(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	msg := fx.seed(t, fx.alice, fx.bob, "hello")

	count, err := fx.svc.MarkRead(ctx, fx.bob, []uuid.UUID{msg.ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 message marked, got %d", count)
	}
	if !msg.IsRead {
		t.Fatal("message should be read")
	}

	// A second pass finds nothing to flip; read never reverts.
	count, err = fx.svc.MarkRead(ctx, fx.bob, []uuid.UUID{msg.ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on repeat, got %d", count)
	}
	if !msg.IsRead {
		t.Fatal("read flag must never revert")
	}
}

func TestMarkReadIgnoresForeignMessages(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	mine := fx.seed(t, fx.alice, fx.bob, "for bob")
	theirs := fx.seed(t, fx.bob, fx.alice, "for alice")

	// Bob tries to mark both; only the one he received flips.
	count, err := fx.svc.MarkRead(ctx, fx.bob, []uuid.UUID{mine.ID, theirs.ID, uuid.New()})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 message marked, got %d", count)
	}
	if !mine.IsRead {
		t.Fatal("bob's received message should be read")
	}
	if theirs.IsRead {
		t.Fatal("a message bob sent must not be flipped by bob")
	}
}

func TestMarkReadEmptyBatch(t *testing.T) {
	fx := newMessageFixture(t)

	count, err := fx.svc.MarkRead(context.Background(), fx.bob, nil)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 for empty batch, got %d", count)
	}
}

func TestMarkConversationRead(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	m1 := fx.seed(t, fx.alice, fx.bob, "one")
	m2 := fx.seed(t, fx.alice, fx.bob, "two")
	outbound := fx.seed(t, fx.bob, fx.alice, "reply")

	otherTrip := uuid.New()
	elsewhere := &domain.Message{TripID: otherTrip, SenderID: fx.alice, ReceiverID: fx.bob, Content: "other trip"}
	if err := fx.messages.Create(ctx, elsewhere); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	count, err := fx.svc.MarkConversationRead(ctx, fx.bob, fx.tripID, fx.alice)
	if err != nil {
		t.Fatalf("MarkConversationRead failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 messages marked, got %d", count)
	}
	if !m1.IsRead || !m2.IsRead {
		t.Fatal("inbound conversation messages should be read")
	}
	if outbound.IsRead {
		t.Fatal("bob's own outbound message must stay untouched")
	}
	if elsewhere.IsRead {
		t.Fatal("messages from another trip must stay untouched")
	}
}

func TestHistoryRequiresIdentifiers(t *testing.T) {
	fx := newMessageFixture(t)

	if _, err := fx.svc.History(context.Background(), fx.bob, uuid.Nil, fx.alice); err == nil {
		t.Fatal("expected error for missing trip id")
	}
	if _, err := fx.svc.History(context.Background(), fx.bob, fx.tripID, uuid.Nil); err == nil {
		t.Fatal("expected error for missing user id")
	}
}
