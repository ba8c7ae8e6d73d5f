package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrDuplicateOrder = errors.New("order number already exists")
)

type OrderStatus string

const (
	StatusPlaced   OrderStatus = "PLACED"
	StatusRejected OrderStatus = "REJECTED"
	StatusFailed   OrderStatus = "FAILED"
)

type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   uuid.UUID       `json:"order_number"`
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	CustomerEmail string          `json:"customer_email"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewOrder builds a PLACED order with a fresh order number. The caller must
// already hold a committed reservation for sku and quantity.
func NewOrder(sku string, quantity int, price decimal.Decimal, customerEmail string) Order {
	return Order{
		OrderNumber:   uuid.New(),
		SKU:           sku,
		Quantity:      quantity,
		Price:         price,
		CustomerEmail: customerEmail,
		Status:        StatusPlaced,
		CreatedAt:     time.Now().UTC(),
	}
}

func (o Order) Validate() error {
	switch {
	case o.SKU == "":
		return errors.Join(ErrInvalidOrder, errors.New("sku is required"))
	case o.Quantity <= 0:
		return errors.Join(ErrInvalidOrder, errors.New("quantity must be positive"))
	case o.Price.IsNegative():
		return errors.Join(ErrInvalidOrder, errors.New("price must not be negative"))
	}
	return nil
}
