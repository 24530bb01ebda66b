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

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	List(ctx context.Context, filter domain.TripFilter, limit, offset int) ([]*domain.Trip, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Trip, error)
	Update(ctx context.Context, trip *domain.Trip) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type tripRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewTripRepository(db *pgxpool.Pool, log logger.Logger) TripRepository {
	return &tripRepository{db: db, log: log}
}

const tripSelect = `
	SELECT t.id, t.driver_id, t.from_city, t.to_city, t.departure_date,
	       t.available_seats, t.price_per_seat, t.description, t.status,
	       t.created_at, t.updated_at,
	       u.id, u.name, u.avatar_url
	FROM trips t
	JOIN users u ON u.id = t.driver_id
`

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, driver_id, from_city, to_city, departure_date,
		                   available_seats, price_per_seat, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		trip.ID, trip.DriverID, trip.FromCity, trip.ToCity, trip.DepartureDate,
		trip.AvailableSeats, trip.PricePerSeat, trip.Description, trip.Status,
		trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to create trip", "error", err, "driver_id", trip.DriverID)
		return err
	}

	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, tripSelect+` WHERE t.id = $1`, id)

	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTripNotFound
		}
		r.log.Error("failed to get trip", "error", err, "trip_id", id)
		return nil, err
	}

	return trip, nil
}

func (r *tripRepository) List(ctx context.Context, filter domain.TripFilter, limit, offset int) ([]*domain.Trip, error) {
	query := tripSelect + `
		WHERE t.status = $1
		  AND ($2 = '' OR t.from_city ILIKE $2)
		  AND ($3 = '' OR t.to_city ILIKE $3)
		  AND ($4::date IS NULL OR t.departure_date::date = $4::date)
		  AND t.available_seats > 0
		ORDER BY t.departure_date ASC
		LIMIT $5 OFFSET $6
	`

	var date *time.Time
	if filter.Date != nil {
		date = filter.Date
	}

	rows, err := r.db.Query(ctx, query,
		domain.TripStatusActive, filter.FromCity, filter.ToCity, date, limit, offset,
	)
	if err != nil {
		r.log.Error("failed to list trips", "error", err)
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

func (r *tripRepository) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Trip, error) {
	rows, err := r.db.Query(ctx, tripSelect+` WHERE t.driver_id = $1 ORDER BY t.departure_date DESC`, driverID)
	if err != nil {
		r.log.Error("failed to list driver trips", "error", err, "driver_id", driverID)
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

func (r *tripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET from_city = $2, to_city = $3, departure_date = $4, available_seats = $5,
		    price_per_seat = $6, description = $7, status = $8, updated_at = $9
		WHERE id = $1
	`

	trip.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, query,
		trip.ID, trip.FromCity, trip.ToCity, trip.DepartureDate, trip.AvailableSeats,
		trip.PricePerSeat, trip.Description, trip.Status, trip.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to update trip", "error", err, "trip_id", trip.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTripNotFound
	}

	return nil
}

func (r *tripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete trip", "error", err, "trip_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTripNotFound
	}

	return nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	trip := &domain.Trip{Driver: &domain.UserSummary{}}
	err := row.Scan(
		&trip.ID, &trip.DriverID, &trip.FromCity, &trip.ToCity, &trip.DepartureDate,
		&trip.AvailableSeats, &trip.PricePerSeat, &trip.Description, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt,
		&trip.Driver.ID, &trip.Driver.Name, &trip.Driver.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func collectTrips(rows pgx.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}
