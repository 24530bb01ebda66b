package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event names are part of the wire contract shared with clients.
const (
	// client -> server
	EventJoinTrip    = "join-trip"
	EventSendMessage = "send-message"
	EventTyping      = "typing"

	// server -> client
	EventJoinedTrip = "joined-trip"
	EventNewMessage = "new-message"
	EventUserTyping = "user-typing"
	EventUserLeft   = "user-left"
	EventError      = "error"
)

// Event is the JSON envelope carried over the socket in both
// directions. Receivers ignore fields they do not understand.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals the payload into the envelope.
func NewEvent(name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}

type JoinPayload struct {
	TripID uuid.UUID `json:"tripId"`
	UserID uuid.UUID `json:"userId"`
}

type TypingPayload struct {
	TripID   uuid.UUID `json:"tripId"`
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	IsTyping bool      `json:"isTyping"`
}

// UserTypingPayload is the fan-out shape; the room is implicit in the
// delivery, so tripId is not echoed back.
type UserTypingPayload struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	IsTyping bool      `json:"isTyping"`
}

type UserLeftPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
