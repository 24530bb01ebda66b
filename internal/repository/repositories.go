package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"ride_share/pkg/logger"
)

type Repositories struct {
	User      UserRepository
	Trip      TripRepository
	Message   MessageRepository
	Rating    RatingRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db, log),
		Trip:      NewTripRepository(db, log),
		Message:   NewMessageRepository(db, log),
		Rating:    NewRatingRepository(db, log),
		RateLimit: NewRateLimitRepository(rdb, log),
	}
}
