// Package memory is a process-local ledger backend for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
)

type Ledger struct {
	mu    sync.Mutex
	stock map[string]domain.StockRecord
}

func NewLedger() *Ledger {
	return &Ledger{stock: make(map[string]domain.StockRecord)}
}

func (l *Ledger) Get(_ context.Context, sku string) (domain.StockRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.stock[sku]
	if !ok {
		return domain.StockRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (l *Ledger) Reserve(_ context.Context, sku string, quantity int) (domain.ReservationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.stock[sku]
	if !ok {
		return domain.ReservationResult{}, nil
	}
	if rec.Quantity < quantity {
		return domain.ReservationResult{ResultingQuantity: rec.Quantity}, nil
	}
	rec.Quantity -= quantity
	rec.UpdatedAt = time.Now().UTC()
	l.stock[sku] = rec
	return domain.ReservationResult{Committed: true, ResultingQuantity: rec.Quantity}, nil
}

func (l *Ledger) Release(_ context.Context, sku string, quantity int) (int, error) {
	return l.add(sku, quantity), nil
}

func (l *Ledger) Upsert(_ context.Context, sku string, quantity int) (int, error) {
	return l.add(sku, quantity), nil
}

func (l *Ledger) add(sku string, quantity int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.stock[sku]
	rec.SKU = sku
	rec.Quantity += quantity
	rec.UpdatedAt = time.Now().UTC()
	l.stock[sku] = rec
	return rec.Quantity
}
