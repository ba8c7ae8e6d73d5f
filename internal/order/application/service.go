package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

// Service answers order queries. Placing an order goes through the saga
// coordinator, never through here.
type Service struct {
	log  *slog.Logger
	repo OrderRepository
}

func NewService(log *slog.Logger, repo OrderRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber uuid.UUID) (domain.Order, error) {
	return s.repo.FindByOrderNumber(ctx, orderNumber)
}
