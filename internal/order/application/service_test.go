package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/infrastructure/memory"
)

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := application.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)

	saved, err := repo.Save(ctx, domain.NewOrder("WIDGET", 1, decimal.NewFromInt(3), "a@example.com"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := svc.GetByOrderNumber(ctx, saved.OrderNumber)
	if err != nil || got.ID != saved.ID {
		t.Fatalf("by number: %+v, %v", got, err)
	}
	if _, err := svc.Get(ctx, saved.ID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByOrderNumber(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
