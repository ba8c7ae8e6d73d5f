package application

import (
	"context"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
)

// Inventory is satisfied by the order side's InventoryGateway.
type Inventory interface {
	ReserveStock(ctx context.Context, sku string, quantity int) invdomain.ReservationResult
	ReleaseStock(ctx context.Context, sku string, quantity int) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev publisher.Event) error
}
