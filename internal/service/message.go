package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/internal/repository"
	"ride_share/pkg/logger"
)

// MessageService owns the chat ledger rules: who may send to whom,
// what counts as unread, and who may mark what read.
type MessageService interface {
	Send(ctx context.Context, senderID, tripID, receiverID uuid.UUID, content, messageType string) (*domain.Message, error)
	History(ctx context.Context, currentUserID, tripID, otherUserID uuid.UUID) ([]*domain.Message, error)
	MarkRead(ctx context.Context, currentUserID uuid.UUID, ids []uuid.UUID) (int64, error)
	MarkConversationRead(ctx context.Context, currentUserID, tripID, otherUserID uuid.UUID) (int64, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	tripRepo    repository.TripRepository
	userRepo    repository.UserRepository
	log         logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, tripRepo repository.TripRepository, userRepo repository.UserRepository, log logger.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		log:         log,
	}
}

func (s *messageService) Send(ctx context.Context, senderID, tripID, receiverID uuid.UUID, content, messageType string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}
	if senderID == receiverID {
		return nil, errors.New("cannot send a message to yourself")
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return nil, errors.New("invalid message type")
	}

	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		return nil, errors.New("trip not found")
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, errors.New("receiver not found")
	}

	msg := &domain.Message{
		TripID:      tripID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: messageType,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Return the populated shape so the caller can broadcast it without
	// another query.
	populated, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		s.log.Warn("failed to load populated message after create", "error", err, "message_id", msg.ID)
		return msg, nil
	}

	return populated, nil
}

func (s *messageService) History(ctx context.Context, currentUserID, tripID, otherUserID uuid.UUID) ([]*domain.Message, error) {
	if tripID == uuid.Nil || otherUserID == uuid.Nil {
		return nil, errors.New("trip id and user id are required")
	}
	return s.messageRepo.ListBetween(ctx, tripID, currentUserID, otherUserID)
}

// MarkRead is receiver-initiated only: ids in the batch where the
// caller is not the receiver are silently dropped by the repository
// predicate rather than rejected with an error.
func (s *messageService) MarkRead(ctx context.Context, currentUserID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.messageRepo.MarkRead(ctx, ids, currentUserID)
}

func (s *messageService) MarkConversationRead(ctx context.Context, currentUserID, tripID, otherUserID uuid.UUID) (int64, error) {
	if tripID == uuid.Nil || otherUserID == uuid.Nil {
		return 0, errors.New("trip id and user id are required")
	}
	return s.messageRepo.MarkConversationRead(ctx, tripID, otherUserID, currentUserID)
}
