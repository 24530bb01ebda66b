package service

import (
	"ride_share/internal/config"
	"ride_share/internal/repository"
	"ride_share/pkg/logger"
)

type Services struct {
	Auth         AuthService
	User         UserService
	Trip         TripService
	Message      MessageService
	Conversation ConversationService
	Rating       RatingService
	RateLimit    RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:         NewAuthService(repos.User, cfg.JWT, log),
		User:         NewUserService(repos.User, log),
		Trip:         NewTripService(repos.Trip, log),
		Message:      NewMessageService(repos.Message, repos.Trip, repos.User, log),
		Conversation: NewConversationService(repos.Message, log),
		Rating:       NewRatingService(repos.Rating, repos.Trip, log),
		RateLimit:    NewRateLimitService(repos.RateLimit, log),
	}
}
