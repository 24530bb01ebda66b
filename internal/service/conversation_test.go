package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/pkg/logger"
)

type convoBuilder struct {
	me       uuid.UUID
	now      time.Time
	messages []*domain.Message
}

func newConvoBuilder() *convoBuilder {
	return &convoBuilder{me: uuid.New(), now: time.Now()}
}

// add prepends so the stored order stays newest-first, the order the
// repository delivers.
func (b *convoBuilder) add(trip *domain.TripSummary, sender, receiver *domain.UserSummary, content string, isRead bool) *domain.Message {
	b.now = b.now.Add(time.Minute)
	msg := &domain.Message{
		ID:          uuid.New(),
		SenderID:    sender.ID,
		ReceiverID:  receiver.ID,
		Content:     content,
		MessageType: domain.MessageTypeText,
		IsRead:      isRead,
		CreatedAt:   b.now,
		Sender:      sender,
		Receiver:    receiver,
		Trip:        trip,
	}
	if trip != nil {
		msg.TripID = trip.ID
	}
	b.messages = append([]*domain.Message{msg}, b.messages...)
	return msg
}

func (b *convoBuilder) list(t *testing.T) []*domain.Conversation {
	t.Helper()
	svc := NewConversationService(&fakeMessageRepo{messages: b.messages}, logger.Nop())
	conversations, err := svc.ListForUser(context.Background(), b.me)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	return conversations
}

func TestConversationsGroupByTripAndCounterparty(t *testing.T) {
	b := newConvoBuilder()
	me := &domain.UserSummary{ID: b.me, Name: "Me"}
	anna := &domain.UserSummary{ID: uuid.New(), Name: "Anna"}
	boris := &domain.UserSummary{ID: uuid.New(), Name: "Boris"}
	tripA := &domain.TripSummary{ID: uuid.New(), FromCity: "Riga", ToCity: "Tallinn"}
	tripB := &domain.TripSummary{ID: uuid.New(), FromCity: "Riga", ToCity: "Vilnius"}

	b.add(tripA, anna, me, "first from anna", true)
	b.add(tripA, me, anna, "my reply", false)
	b.add(tripA, anna, me, "latest from anna", false)
	b.add(tripB, boris, me, "boris on trip b", false)
	// Same counterparty, different trip: a separate conversation.
	b.add(tripB, anna, me, "anna on trip b", false)

	conversations := b.list(t)
	if len(conversations) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(conversations))
	}

	// Newest-first input means the list is ordered by last activity.
	first := conversations[0]
	if first.Trip.ID != tripB.ID || first.OtherUser.ID != anna.ID {
		t.Fatalf("unexpected first conversation: trip %s, other %s", first.Trip.ID, first.OtherUser.ID)
	}

	var tripAAnna *domain.Conversation
	for _, conv := range conversations {
		if conv.Trip.ID == tripA.ID && conv.OtherUser.ID == anna.ID {
			tripAAnna = conv
		}
	}
	if tripAAnna == nil {
		t.Fatal("missing conversation for trip A with anna")
	}
	if tripAAnna.LastMessage.Content != "latest from anna" {
		t.Fatalf("expected newest message as last, got %q", tripAAnna.LastMessage.Content)
	}
}

func TestConversationsCountOnlyInboundUnread(t *testing.T) {
	b := newConvoBuilder()
	me := &domain.UserSummary{ID: b.me, Name: "Me"}
	anna := &domain.UserSummary{ID: uuid.New(), Name: "Anna"}
	trip := &domain.TripSummary{ID: uuid.New(), FromCity: "Riga", ToCity: "Tartu"}

	b.add(trip, anna, me, "unread one", false)
	b.add(trip, anna, me, "already read", true)
	// My own unread outbound must not count against me.
	b.add(trip, me, anna, "my unread outbound", false)
	b.add(trip, anna, me, "unread two", false)

	conversations := b.list(t)
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if got := conversations[0].UnreadCount; got != 2 {
		t.Fatalf("expected unread count 2, got %d", got)
	}
}

func TestConversationsSkipOrphanedTrips(t *testing.T) {
	b := newConvoBuilder()
	me := &domain.UserSummary{ID: b.me, Name: "Me"}
	anna := &domain.UserSummary{ID: uuid.New(), Name: "Anna"}
	trip := &domain.TripSummary{ID: uuid.New(), FromCity: "Riga", ToCity: "Tartu"}

	b.add(nil, anna, me, "trip was deleted", false)
	b.add(trip, anna, me, "still valid", false)

	conversations := b.list(t)
	if len(conversations) != 1 {
		t.Fatalf("expected orphaned message skipped, got %d conversations", len(conversations))
	}
	if conversations[0].Trip.ID != trip.ID {
		t.Fatal("surviving conversation should be the one with a live trip")
	}
}

func TestConversationsSkipSelfMessages(t *testing.T) {
	b := newConvoBuilder()
	me := &domain.UserSummary{ID: b.me, Name: "Me"}
	trip := &domain.TripSummary{ID: uuid.New(), FromCity: "Riga", ToCity: "Tartu"}

	b.add(trip, me, me, "note to self", false)

	conversations := b.list(t)
	if len(conversations) != 0 {
		t.Fatalf("expected self-messages skipped, got %d conversations", len(conversations))
	}
}

func TestConversationsEmptyLedger(t *testing.T) {
	b := newConvoBuilder()

	conversations := b.list(t)
	if len(conversations) != 0 {
		t.Fatalf("expected no conversations, got %d", len(conversations))
	}
}
