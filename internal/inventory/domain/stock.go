package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidSKU      = errors.New("sku is required")
	ErrNotFound        = errors.New("stock record not found")
)

// StockRecord is the ledger row for one SKU. Quantity never goes below zero.
type StockRecord struct {
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReservationResult is what a reserve call reports back. TransportFailure is
// set only by callers that could not reach the ledger; the ledger itself
// never sets it.
type ReservationResult struct {
	Committed         bool `json:"committed"`
	ResultingQuantity int  `json:"resulting_quantity"`
	TransportFailure  bool `json:"-"`
}

// Rejected reports a definitive "not enough stock" answer from the ledger.
func (r ReservationResult) Rejected() bool {
	return !r.Committed && !r.TransportFailure
}

func Validate(sku string, quantity int) error {
	if sku == "" {
		return ErrInvalidSKU
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
