package service

import (
	"context"
	"time"

	"ride_share/internal/repository"
	"ride_share/pkg/logger"
)

type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit, windowSeconds int) (bool, error)
	Increment(ctx context.Context, key string, windowSeconds int) (int64, error)
}

type rateLimitService struct {
	repo repository.RateLimitRepository
	log  logger.Logger
}

func NewRateLimitService(repo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{repo: repo, log: log}
}

func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit, windowSeconds int) (bool, error) {
	return s.repo.CheckLimit(ctx, key, limit, time.Duration(windowSeconds)*time.Second)
}

func (s *rateLimitService) Increment(ctx context.Context, key string, windowSeconds int) (int64, error) {
	return s.repo.Increment(ctx, key, time.Duration(windowSeconds)*time.Second)
}
