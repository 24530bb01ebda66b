package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/internal/repository"
	"ride_share/pkg/logger"
)

type RatingService interface {
	Create(ctx context.Context, raterID uuid.UUID, input RatingInput) (*domain.Rating, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error)
	AverageForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error)
}

type RatingInput struct {
	TripID      uuid.UUID `json:"trip_id" binding:"required"`
	RatedUserID uuid.UUID `json:"rated_user_id" binding:"required"`
	Score       int       `json:"score" binding:"required"`
	Comment     *string   `json:"comment"`
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	tripRepo   repository.TripRepository
	log        logger.Logger
}

func NewRatingService(ratingRepo repository.RatingRepository, tripRepo repository.TripRepository, log logger.Logger) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		tripRepo:   tripRepo,
		log:        log,
	}
}

func (s *ratingService) Create(ctx context.Context, raterID uuid.UUID, input RatingInput) (*domain.Rating, error) {
	if input.Score < 1 || input.Score > 5 {
		return nil, errors.New("score must be between 1 and 5")
	}
	if raterID == input.RatedUserID {
		return nil, errors.New("cannot rate yourself")
	}

	if _, err := s.tripRepo.GetByID(ctx, input.TripID); err != nil {
		return nil, errors.New("trip not found")
	}

	exists, err := s.ratingRepo.ExistsForTripAndRater(ctx, input.TripID, raterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("trip already rated")
	}

	rating := &domain.Rating{
		TripID:      input.TripID,
		RaterID:     raterID,
		RatedUserID: input.RatedUserID,
		Score:       input.Score,
		Comment:     input.Comment,
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	return rating, nil
}

func (s *ratingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	return s.ratingRepo.ListForUser(ctx, userID)
}

func (s *ratingService) AverageForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error) {
	return s.ratingRepo.AverageForUser(ctx, userID)
}
