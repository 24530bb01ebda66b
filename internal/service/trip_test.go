package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
	apperrors "ride_share/pkg/errors"
	"ride_share/pkg/logger"
)

func validTripInput() TripInput {
	return TripInput{
		FromCity:       "Riga",
		ToCity:         "Tallinn",
		DepartureDate:  time.Now().Add(24 * time.Hour),
		AvailableSeats: 3,
		PricePerSeat:   15,
	}
}

func TestTripCreateValidation(t *testing.T) {
	svc := NewTripService(&fakeTripRepo{trips: map[uuid.UUID]*domain.Trip{}}, logger.Nop())
	ctx := context.Background()
	driverID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*TripInput)
	}{
		{"missing from city", func(in *TripInput) { in.FromCity = "  " }},
		{"missing to city", func(in *TripInput) { in.ToCity = "" }},
		{"zero seats", func(in *TripInput) { in.AvailableSeats = 0 }},
		{"too many seats", func(in *TripInput) { in.AvailableSeats = 9 }},
		{"negative price", func(in *TripInput) { in.PricePerSeat = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validTripInput()
			tc.mutate(&input)
			if _, err := svc.Create(ctx, driverID, input); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	trip, err := svc.Create(ctx, driverID, validTripInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if trip.Status != domain.TripStatusActive {
		t.Fatalf("expected new trip to be active, got %q", trip.Status)
	}
}

func TestTripUpdateIsDriverOnly(t *testing.T) {
	repo := &fakeTripRepo{trips: map[uuid.UUID]*domain.Trip{}}
	svc := NewTripService(repo, logger.Nop())
	ctx := context.Background()
	driverID := uuid.New()

	trip, err := svc.Create(ctx, driverID, validTripInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	input := validTripInput()
	input.AvailableSeats = 2

	if _, err := svc.Update(ctx, trip.ID, uuid.New(), input); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	if _, err := svc.Update(ctx, trip.ID, driverID, input); err != nil {
		t.Fatalf("driver update failed: %v", err)
	}
}

func TestTripDeleteIsDriverOnly(t *testing.T) {
	repo := &fakeTripRepo{trips: map[uuid.UUID]*domain.Trip{}}
	svc := NewTripService(repo, logger.Nop())
	ctx := context.Background()
	driverID := uuid.New()

	trip, err := svc.Create(ctx, driverID, validTripInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, trip.ID, uuid.New()); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	if err := svc.Delete(ctx, trip.ID, driverID); err != nil {
		t.Fatalf("driver delete failed: %v", err)
	}
}

func TestTripListClampsPaging(t *testing.T) {
	repo := &fakeTripRepo{trips: map[uuid.UUID]*domain.Trip{}}
	svc := NewTripService(repo, logger.Nop())

	if _, err := svc.List(context.Background(), domain.TripFilter{}, -5, -10); err != nil {
		t.Fatalf("List failed: %v", err)
	}
}
