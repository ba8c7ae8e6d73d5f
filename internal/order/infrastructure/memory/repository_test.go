package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

func TestRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	saved, err := repo.Save(ctx, domain.NewOrder("WIDGET", 2, decimal.NewFromInt(5), "a@example.com"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == 0 {
		t.Fatalf("expected an assigned id")
	}

	byID, err := repo.FindByID(ctx, saved.ID)
	if err != nil || byID.OrderNumber != saved.OrderNumber {
		t.Fatalf("find by id: %+v, %v", byID, err)
	}
	byNumber, err := repo.FindByOrderNumber(ctx, saved.OrderNumber)
	if err != nil || byNumber.ID != saved.ID {
		t.Fatalf("find by number: %+v, %v", byNumber, err)
	}

	if _, err := repo.FindByOrderNumber(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_RejectsDuplicateOrderNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	o := domain.NewOrder("WIDGET", 1, decimal.NewFromInt(5), "")

	if _, err := repo.Save(ctx, o); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.Save(ctx, o); !errors.Is(err, domain.ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one order, got %d", repo.Len())
	}
}
