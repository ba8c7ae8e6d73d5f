package application

import (
	"context"

	"github.com/google/uuid"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

type OrderRepository interface {
	Save(ctx context.Context, o domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber uuid.UUID) (domain.Order, error)
}

// InventoryTransport is the raw network view of the stock ledger. Errors
// it returns are classified by the resilience wrapper; a business rejection
// is a ReservationResult with Committed=false and a nil error.
type InventoryTransport interface {
	CheckAvailability(ctx context.Context, sku string, quantity int) (bool, error)
	Reserve(ctx context.Context, sku string, quantity int) (invdomain.ReservationResult, error)
	Release(ctx context.Context, sku string, quantity int) error
}
