package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
)

// Service is the stock ledger. Reserve is the only path that lowers stock for
// order fulfillment.
type Service struct {
	log    *slog.Logger
	repo   StockRepository
	events EventPublisher
}

func NewService(log *slog.Logger, repo StockRepository, events EventPublisher) *Service {
	return &Service{log: log, repo: repo, events: events}
}

// CheckAvailable is advisory only; the answer can be stale by the time the
// caller acts on it.
func (s *Service) CheckAvailable(ctx context.Context, sku string, quantity int) (bool, error) {
	if err := domain.Validate(sku, quantity); err != nil {
		return false, err
	}
	rec, err := s.repo.Get(ctx, sku)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check availability %s: %w", sku, err)
	}
	return rec.Quantity >= quantity, nil
}

func (s *Service) Reserve(ctx context.Context, sku string, quantity int) (domain.ReservationResult, error) {
	if err := domain.Validate(sku, quantity); err != nil {
		return domain.ReservationResult{}, err
	}
	res, err := s.repo.Reserve(ctx, sku, quantity)
	if err != nil {
		return domain.ReservationResult{}, fmt.Errorf("reserve %s: %w", sku, err)
	}
	if !res.Committed {
		s.log.Info("reservation rejected", "sku", sku, "requested", quantity, "available", res.ResultingQuantity)
		return res, nil
	}
	s.log.Info("stock reserved", "sku", sku, "quantity", quantity, "remaining", res.ResultingQuantity)
	s.publish(ctx, domain.InventoryAdjusted{SKU: sku, Quantity: res.ResultingQuantity})
	return res, nil
}

// Release puts quantity back. It is the compensation for Reserve.
func (s *Service) Release(ctx context.Context, sku string, quantity int) error {
	if err := domain.Validate(sku, quantity); err != nil {
		return err
	}
	remaining, err := s.repo.Release(ctx, sku, quantity)
	if err != nil {
		return fmt.Errorf("release %s: %w", sku, err)
	}
	s.log.Info("stock released", "sku", sku, "quantity", quantity, "remaining", remaining)
	s.publish(ctx, domain.InventoryAdjusted{SKU: sku, Quantity: remaining})
	return nil
}

// UpsertInitial creates the record for sku or tops it up. Used when a product
// is registered, never on the order path.
func (s *Service) UpsertInitial(ctx context.Context, sku string, quantity int) (domain.StockRecord, error) {
	if sku == "" {
		return domain.StockRecord{}, domain.ErrInvalidSKU
	}
	if quantity < 0 {
		return domain.StockRecord{}, domain.ErrInvalidQuantity
	}
	total, err := s.repo.Upsert(ctx, sku, quantity)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("upsert %s: %w", sku, err)
	}
	s.log.Info("stock upserted", "sku", sku, "added", quantity, "quantity", total)
	s.publish(ctx, domain.InventoryAdjusted{SKU: sku, Quantity: total})
	return domain.StockRecord{SKU: sku, Quantity: total}, nil
}

func (s *Service) Get(ctx context.Context, sku string) (domain.StockRecord, error) {
	return s.repo.Get(ctx, sku)
}

func (s *Service) publish(ctx context.Context, ev domain.InventoryAdjusted) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("inventory event not published", "sku", ev.SKU, "err", err)
	}
}
