// Package memory keeps orders in process memory. It backs local runs and
// tests; production uses the postgres repository.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

type Repository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]domain.Order
	byNumber map[uuid.UUID]int64
}

func NewRepository() *Repository {
	return &Repository{
		byID:     make(map[int64]domain.Order),
		byNumber: make(map[uuid.UUID]int64),
	}
}

func (r *Repository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if err := o.Validate(); err != nil {
		return domain.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byNumber[o.OrderNumber]; ok && id != o.ID {
		return domain.Order{}, domain.ErrDuplicateOrder
	}
	if o.ID == 0 {
		r.nextID++
		o.ID = r.nextID
	}
	r.byID[o.ID] = o
	r.byNumber[o.OrderNumber] = o.ID
	return o, nil
}

func (r *Repository) FindByID(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r *Repository) FindByOrderNumber(_ context.Context, orderNumber uuid.UUID) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[orderNumber]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
