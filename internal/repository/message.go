package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"ride_share/internal/domain"
	apperrors "ride_share/pkg/errors"
	"ride_share/pkg/logger"
)

// MessageRepository is the persistence gateway for the chat ledger.
// Mark-read operations require the caller's user id and only ever
// touch rows where that user is the receiver.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListBetween(ctx context.Context, tripID, userA, userB uuid.UUID) ([]*domain.Message, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error)
	MarkRead(ctx context.Context, ids []uuid.UUID, receiverID uuid.UUID) (int64, error)
	MarkConversationRead(ctx context.Context, tripID, otherUserID, receiverID uuid.UUID) (int64, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

// Trip join is LEFT: a message whose trip was removed still belongs to
// the ledger and is skipped during aggregation rather than erroring.
const messageSelect = `
	SELECT m.id, m.trip_id, m.sender_id, m.receiver_id, m.content, m.message_type,
	       m.is_read, m.created_at,
	       s.name, s.avatar_url,
	       rc.name, rc.avatar_url,
	       t.id, t.from_city, t.to_city
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users rc ON rc.id = m.receiver_id
	LEFT JOIN trips t ON t.id = m.trip_id
`

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	// is_read is forced false on create regardless of caller input; the
	// receiver flips it when they open the conversation.
	query := `
		INSERT INTO messages (id, trip_id, sender_id, receiver_id, content, message_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		RETURNING created_at
	`

	msg.ID = uuid.New()
	msg.IsRead = false
	err := r.db.QueryRow(ctx, query,
		msg.ID, msg.TripID, msg.SenderID, msg.ReceiverID,
		msg.Content, msg.MessageType, time.Now(),
	).Scan(&msg.CreatedAt)
	if err != nil {
		r.log.Error("failed to create message", "error", err, "trip_id", msg.TripID)
		return err
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("failed to get message", "error", err, "message_id", id)
		return nil, err
	}

	return msg, nil
}

func (r *messageRepository) ListBetween(ctx context.Context, tripID, userA, userB uuid.UUID) ([]*domain.Message, error) {
	query := messageSelect + `
		WHERE m.trip_id = $1
		  AND ((m.sender_id = $2 AND m.receiver_id = $3) OR (m.sender_id = $3 AND m.receiver_id = $2))
		ORDER BY m.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, tripID, userA, userB)
	if err != nil {
		r.log.Error("failed to list messages", "error", err, "trip_id", tripID)
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *messageRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	query := messageSelect + `
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list participant messages", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

// MarkRead flips is_read for the given ids in one transaction. The
// receiver predicate makes foreign ids a silent no-op instead of an
// error, and re-marking an already-read message changes nothing, so
// the flag only ever moves false -> true.
func (r *messageRepository) MarkRead(ctx context.Context, ids []uuid.UUID, receiverID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("failed to begin mark-read tx", "error", err)
		return 0, err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE messages
		SET is_read = true
		WHERE id = ANY($1) AND receiver_id = $2 AND is_read = false
	`

	tag, err := tx.Exec(ctx, query, ids, receiverID)
	if err != nil {
		r.log.Error("failed to mark messages read", "error", err, "receiver_id", receiverID)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit mark-read tx", "error", err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// MarkConversationRead computes the unread set server-side: one round
// trip marks everything the other party sent in this trip.
func (r *messageRepository) MarkConversationRead(ctx context.Context, tripID, otherUserID, receiverID uuid.UUID) (int64, error) {
	query := `
		UPDATE messages
		SET is_read = true
		WHERE trip_id = $1 AND sender_id = $2 AND receiver_id = $3 AND is_read = false
	`

	tag, err := r.db.Exec(ctx, query, tripID, otherUserID, receiverID)
	if err != nil {
		r.log.Error("failed to mark conversation read", "error", err, "trip_id", tripID, "receiver_id", receiverID)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	msg := &domain.Message{
		Sender:   &domain.UserSummary{},
		Receiver: &domain.UserSummary{},
	}

	var tripID *uuid.UUID
	var fromCity, toCity *string

	err := row.Scan(
		&msg.ID, &msg.TripID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.MessageType,
		&msg.IsRead, &msg.CreatedAt,
		&msg.Sender.Name, &msg.Sender.AvatarURL,
		&msg.Receiver.Name, &msg.Receiver.AvatarURL,
		&tripID, &fromCity, &toCity,
	)
	if err != nil {
		return nil, err
	}

	msg.Sender.ID = msg.SenderID
	msg.Receiver.ID = msg.ReceiverID
	if tripID != nil {
		msg.Trip = &domain.TripSummary{ID: *tripID}
		if fromCity != nil {
			msg.Trip.FromCity = *fromCity
		}
		if toCity != nil {
			msg.Trip.ToCity = *toCity
		}
	}

	return msg, nil
}

func collectMessages(rows pgx.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
