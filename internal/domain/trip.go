package domain

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID             uuid.UUID    `json:"id"`
	DriverID       uuid.UUID    `json:"driver_id"`
	Driver         *UserSummary `json:"driver,omitempty"`
	FromCity       string       `json:"from_city"`
	ToCity         string       `json:"to_city"`
	DepartureDate  time.Time    `json:"departure_date"`
	AvailableSeats int          `json:"available_seats"`
	PricePerSeat   float64      `json:"price_per_seat"`
	Description    *string      `json:"description,omitempty"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TripSummary is the denormalized trip shape embedded in messages and
// conversations.
type TripSummary struct {
	ID       uuid.UUID `json:"id"`
	FromCity string    `json:"from_city"`
	ToCity   string    `json:"to_city"`
}

func (t *Trip) Summary() *TripSummary {
	return &TripSummary{
		ID:       t.ID,
		FromCity: t.FromCity,
		ToCity:   t.ToCity,
	}
}

const (
	TripStatusActive    = "active"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

type TripFilter struct {
	FromCity string
	ToCity   string
	Date     *time.Time
}
