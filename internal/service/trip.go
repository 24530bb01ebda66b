package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	"ride_share/internal/repository"
	apperrors "ride_share/pkg/errors"
	"ride_share/pkg/logger"
)

type TripService interface {
	Create(ctx context.Context, driverID uuid.UUID, input TripInput) (*domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	List(ctx context.Context, filter domain.TripFilter, limit, offset int) ([]*domain.Trip, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Trip, error)
	Update(ctx context.Context, tripID, driverID uuid.UUID, input TripInput) (*domain.Trip, error)
	Delete(ctx context.Context, tripID, driverID uuid.UUID) error
}

type TripInput struct {
	FromCity       string    `json:"from_city" binding:"required"`
	ToCity         string    `json:"to_city" binding:"required"`
	DepartureDate  time.Time `json:"departure_date" binding:"required"`
	AvailableSeats int       `json:"available_seats" binding:"required"`
	PricePerSeat   float64   `json:"price_per_seat"`
	Description    *string   `json:"description"`
}

type tripService struct {
	tripRepo repository.TripRepository
	log      logger.Logger
}

func NewTripService(tripRepo repository.TripRepository, log logger.Logger) TripService {
	return &tripService{tripRepo: tripRepo, log: log}
}

func (s *tripService) Create(ctx context.Context, driverID uuid.UUID, input TripInput) (*domain.Trip, error) {
	if err := validateTripInput(&input); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:             uuid.New(),
		DriverID:       driverID,
		FromCity:       input.FromCity,
		ToCity:         input.ToCity,
		DepartureDate:  input.DepartureDate,
		AvailableSeats: input.AvailableSeats,
		PricePerSeat:   input.PricePerSeat,
		Description:    input.Description,
		Status:         domain.TripStatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return s.tripRepo.GetByID(ctx, trip.ID)
}

func (s *tripService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return s.tripRepo.GetByID(ctx, id)
}

func (s *tripService) List(ctx context.Context, filter domain.TripFilter, limit, offset int) ([]*domain.Trip, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.tripRepo.List(ctx, filter, limit, offset)
}

func (s *tripService) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*domain.Trip, error) {
	return s.tripRepo.ListByDriver(ctx, driverID)
}

func (s *tripService) Update(ctx context.Context, tripID, driverID uuid.UUID, input TripInput) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, apperrors.ErrForbidden
	}

	if err := validateTripInput(&input); err != nil {
		return nil, err
	}

	trip.FromCity = input.FromCity
	trip.ToCity = input.ToCity
	trip.DepartureDate = input.DepartureDate
	trip.AvailableSeats = input.AvailableSeats
	trip.PricePerSeat = input.PricePerSeat
	trip.Description = input.Description

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	return s.tripRepo.GetByID(ctx, tripID)
}

func (s *tripService) Delete(ctx context.Context, tripID, driverID uuid.UUID) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.DriverID != driverID {
		return apperrors.ErrForbidden
	}

	return s.tripRepo.Delete(ctx, tripID)
}

func validateTripInput(input *TripInput) error {
	input.FromCity = strings.TrimSpace(input.FromCity)
	input.ToCity = strings.TrimSpace(input.ToCity)

	if input.FromCity == "" || input.ToCity == "" {
		return errors.New("departure and destination cities are required")
	}
	if input.AvailableSeats <= 0 || input.AvailableSeats > 8 {
		return errors.New("available seats must be between 1 and 8")
	}
	if input.PricePerSeat < 0 {
		return errors.New("price per seat cannot be negative")
	}
	return nil
}
