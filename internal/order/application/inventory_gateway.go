package application

import (
	"context"
	"log/slog"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/resilience"
)

type stockRequest struct {
	SKU      string
	Quantity int
}

// InventoryGateway is the only way the order side talks to inventory. All
// three operations share one breaker since they hit the same dependency.
type InventoryGateway struct {
	log       *slog.Logger
	transport InventoryTransport
	guard     *resilience.Wrapper
}

func NewInventoryGateway(log *slog.Logger, transport InventoryTransport, guard *resilience.Wrapper) *InventoryGateway {
	return &InventoryGateway{log: log, transport: transport, guard: guard}
}

// IsAvailable fails closed: an unreachable ledger reads as out of stock.
func (g *InventoryGateway) IsAvailable(ctx context.Context, sku string, quantity int) bool {
	return resilience.Do(ctx, g.guard, stockRequest{SKU: sku, Quantity: quantity},
		func(ctx context.Context, r stockRequest) (bool, error) {
			return g.transport.CheckAvailability(ctx, r.SKU, r.Quantity)
		},
		func(r stockRequest, err error) bool {
			g.log.Warn("availability unknown, reporting unavailable", "sku", r.SKU, "quantity", r.Quantity, "err", err)
			return false
		},
	)
}

// ReserveStock never reports a transport problem as a business rejection:
// the fallback result carries TransportFailure so the caller can tell the
// reservation outcome is unknown.
func (g *InventoryGateway) ReserveStock(ctx context.Context, sku string, quantity int) invdomain.ReservationResult {
	return resilience.Do(ctx, g.guard, stockRequest{SKU: sku, Quantity: quantity},
		func(ctx context.Context, r stockRequest) (invdomain.ReservationResult, error) {
			return g.transport.Reserve(ctx, r.SKU, r.Quantity)
		},
		func(r stockRequest, err error) invdomain.ReservationResult {
			g.log.Warn("reservation outcome unknown", "sku", r.SKU, "quantity", r.Quantity, "err", err)
			return invdomain.ReservationResult{Committed: false, ResultingQuantity: 0, TransportFailure: true}
		},
	)
}

// ReleaseStock has no sensible fallback; the error goes back to the saga.
func (g *InventoryGateway) ReleaseStock(ctx context.Context, sku string, quantity int) error {
	_, err := resilience.Execute(ctx, g.guard, stockRequest{SKU: sku, Quantity: quantity},
		func(ctx context.Context, r stockRequest) (struct{}, error) {
			return struct{}{}, g.transport.Release(ctx, r.SKU, r.Quantity)
		},
	)
	return err
}

func (g *InventoryGateway) CircuitState() resilience.State { return g.guard.State() }
