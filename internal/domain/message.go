package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the unit of the chat ledger. Once created the only field
// that ever changes is IsRead, and only from false to true.
type Message struct {
	ID          uuid.UUID    `json:"id"`
	TripID      uuid.UUID    `json:"trip_id"`
	SenderID    uuid.UUID    `json:"sender_id"`
	ReceiverID  uuid.UUID    `json:"receiver_id"`
	Content     string       `json:"content"`
	MessageType string       `json:"message_type"`
	IsRead      bool         `json:"is_read"`
	CreatedAt   time.Time    `json:"created_at"`
	Sender      *UserSummary `json:"sender,omitempty"`
	Receiver    *UserSummary `json:"receiver,omitempty"`
	Trip        *TripSummary `json:"trip,omitempty"`
}

const (
	MessageTypeText                = "text"
	MessageTypeBookingRequest      = "booking_request"
	MessageTypeBookingConfirmation = "booking_confirmation"
	MessageTypeTripUpdate          = "trip_update"
)

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeBookingRequest, MessageTypeBookingConfirmation, MessageTypeTripUpdate:
		return true
	}
	return false
}

// Conversation is derived from the message ledger on every read. It is
// never stored; the ledger stays authoritative.
type Conversation struct {
	Trip        *TripSummary `json:"trip"`
	OtherUser   *UserSummary `json:"other_user"`
	LastMessage *Message     `json:"last_message"`
	UnreadCount int          `json:"unread_count"`
}

// ConversationKey identifies a conversation for one viewer: the trip
// plus the counterparty.
func ConversationKey(tripID, otherUserID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", tripID, otherUserID)
}
