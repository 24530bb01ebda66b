package handler

import (
	"ride_share/internal/config"
	"ride_share/internal/service"
	"ride_share/internal/ws"
	"ride_share/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Trip         *TripHandler
	Message      *MessageHandler
	Conversation *ConversationHandler
	Rating       *RatingHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, hub *ws.Hub, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		Auth:         NewAuthHandler(services.Auth, log),
		User:         NewUserHandler(services.User, log),
		Trip:         NewTripHandler(services.Trip, log),
		Message:      NewMessageHandler(services.Message, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		Rating:       NewRatingHandler(services.Rating, log),
		WebSocket:    NewWebSocketHandler(hub, log),
	}
}
