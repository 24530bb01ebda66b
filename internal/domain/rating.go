package domain

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID          uuid.UUID    `json:"id"`
	TripID      uuid.UUID    `json:"trip_id"`
	RaterID     uuid.UUID    `json:"rater_id"`
	RatedUserID uuid.UUID    `json:"rated_user_id"`
	Score       int          `json:"score"`
	Comment     *string      `json:"comment,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Rater       *UserSummary `json:"rater,omitempty"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
