package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ride_share/internal/service"
	"ride_share/pkg/logger"
)

type MessageHandler struct {
	messageService service.MessageService
	log            logger.Logger
}

func NewMessageHandler(messageService service.MessageService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		log:            log,
	}
}

// GetMessages returns the history for one conversation, ascending by
// creation time, with denormalized sender/receiver/trip.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	tripID, err := uuid.Parse(c.Query("tripId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trip ID is required"})
		return
	}
	otherUserID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	messages, err := h.messageService.History(c.Request.Context(), currentUserID(c), tripID, otherUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type SendMessageRequest struct {
	TripID      uuid.UUID `json:"tripId" binding:"required"`
	ReceiverID  uuid.UUID `json:"receiverId" binding:"required"`
	Content     string    `json:"content" binding:"required"`
	MessageType string    `json:"messageType"`
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trip ID, receiver ID, and content are required"})
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), currentUserID(c), req.TripID, req.ReceiverID, req.Content, req.MessageType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

// MarkReadRequest supports both forms: an explicit id batch, or the
// conversation-wide form where the server computes the unread set.
type MarkReadRequest struct {
	MessageIDs []uuid.UUID `json:"messageIds"`
	TripID     *uuid.UUID  `json:"tripId"`
	UserID     *uuid.UUID  `json:"userId"`
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	me := currentUserID(c)

	if req.TripID != nil && req.UserID != nil {
		count, err := h.messageService.MarkConversationRead(c.Request.Context(), me, *req.TripID, *req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "count": count})
		return
	}

	if len(req.MessageIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message IDs array is required"})
		return
	}

	count, err := h.messageService.MarkRead(c.Request.Context(), me, req.MessageIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "count": count})
}
