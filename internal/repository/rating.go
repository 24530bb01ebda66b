package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"ride_share/internal/domain"
	"ride_share/pkg/logger"
)

type RatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	ExistsForTripAndRater(ctx context.Context, tripID, raterID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error)
	AverageForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error)
}

type ratingRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRatingRepository(db *pgxpool.Pool, log logger.Logger) RatingRepository {
	return &ratingRepository{db: db, log: log}
}

func (r *ratingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, trip_id, rater_id, rated_user_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at
	`

	rating.ID = uuid.New()
	err := r.db.QueryRow(ctx, query,
		rating.ID, rating.TripID, rating.RaterID, rating.RatedUserID,
		rating.Score, rating.Comment,
	).Scan(&rating.CreatedAt)
	if err != nil {
		r.log.Error("failed to create rating", "error", err, "trip_id", rating.TripID)
		return err
	}

	return nil
}

func (r *ratingRepository) ExistsForTripAndRater(ctx context.Context, tripID, raterID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ratings WHERE trip_id = $1 AND rater_id = $2)`,
		tripID, raterID,
	).Scan(&exists)
	if err != nil {
		r.log.Error("failed to check rating existence", "error", err)
		return false, err
	}
	return exists, nil
}

func (r *ratingRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	query := `
		SELECT r.id, r.trip_id, r.rater_id, r.rated_user_id, r.score, r.comment, r.created_at,
		       u.name, u.avatar_url
		FROM ratings r
		JOIN users u ON u.id = r.rater_id
		WHERE r.rated_user_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list ratings", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		rating := &domain.Rating{Rater: &domain.UserSummary{}}
		err := rows.Scan(
			&rating.ID, &rating.TripID, &rating.RaterID, &rating.RatedUserID,
			&rating.Score, &rating.Comment, &rating.CreatedAt,
			&rating.Rater.Name, &rating.Rater.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		rating.Rater.ID = rating.RaterID
		ratings = append(ratings, rating)
	}

	return ratings, rows.Err()
}

func (r *ratingRepository) AverageForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error) {
	query := `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM ratings
		WHERE rated_user_id = $1
	`

	summary := &domain.RatingSummary{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&summary.Average, &summary.Count)
	if err != nil {
		r.log.Error("failed to compute rating average", "error", err, "user_id", userID)
		return nil, err
	}

	return summary, nil
}
