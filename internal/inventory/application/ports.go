package application

import (
	"context"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
)

// StockRepository is a ledger backend. Reserve and Release must each be a
// single atomic operation in the backing store.
type StockRepository interface {
	Get(ctx context.Context, sku string) (domain.StockRecord, error)
	Reserve(ctx context.Context, sku string, quantity int) (domain.ReservationResult, error)
	Release(ctx context.Context, sku string, quantity int) (int, error)
	Upsert(ctx context.Context, sku string, quantity int) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev publisher.Event) error
}
