package service

import (
	"context"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/internal/repository"
	"ride_share/pkg/logger"
)

// ConversationService materializes the conversation list from the flat
// message ledger on every call. Conversations are never stored, so the
// ledger stays the single source of truth for unread counts.
type ConversationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error)
}

type conversationService struct {
	messageRepo repository.MessageRepository
	log         logger.Logger
}

func NewConversationService(messageRepo repository.MessageRepository, log logger.Logger) ConversationService {
	return &conversationService{messageRepo: messageRepo, log: log}
}

func (s *conversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	// Newest first, so the first message seen per group is its last message.
	messages, err := s.messageRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*domain.Conversation)
	order := make([]string, 0)

	for _, msg := range messages {
		if msg.Trip == nil {
			// Orphaned reference: the trip was removed but the ledger row
			// remains. Skipped, not errored.
			continue
		}
		if msg.SenderID == msg.ReceiverID {
			s.log.Warn("message with identical sender and receiver skipped",
				"message_id", msg.ID, "user_id", msg.SenderID)
			continue
		}

		other := msg.Sender
		otherID := msg.SenderID
		if msg.SenderID == userID {
			other = msg.Receiver
			otherID = msg.ReceiverID
		}

		key := domain.ConversationKey(msg.Trip.ID, otherID)
		conv, ok := groups[key]
		if !ok {
			conv = &domain.Conversation{
				Trip:        msg.Trip,
				OtherUser:   other,
				LastMessage: msg,
			}
			groups[key] = conv
			order = append(order, key)
		}

		if msg.ReceiverID == userID && !msg.IsRead {
			conv.UnreadCount++
		}
	}

	conversations := make([]*domain.Conversation, 0, len(order))
	for _, key := range order {
		conversations = append(conversations, groups[key])
	}

	return conversations, nil
}
