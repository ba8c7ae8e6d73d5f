package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/domain"
)

type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Service turns domain events into messages for customers and operations.
type Service struct {
	log    *slog.Logger
	sender Sender
	ops    string
}

func NewService(log *slog.Logger, sender Sender, opsRecipient string) *Service {
	return &Service{log: log, sender: sender, ops: opsRecipient}
}

func (s *Service) OrderPlaced(ctx context.Context, orderNumber, customerEmail string) error {
	if customerEmail == "" {
		s.log.Warn("order has no customer email, skipping confirmation", "order_number", orderNumber)
		return nil
	}
	return s.send(ctx, domain.OrderConfirmation(customerEmail, orderNumber))
}

func (s *Service) LowStock(ctx context.Context, sku string, quantity int) error {
	return s.send(ctx, domain.LowStock(s.ops, sku, quantity))
}

func (s *Service) OutOfStock(ctx context.Context, sku string) error {
	return s.send(ctx, domain.OutOfStock(s.ops, sku))
}

func (s *Service) send(ctx context.Context, n domain.Notification) error {
	if n.Recipient == "" {
		s.log.Warn("notification dropped", "kind", n.Kind, "err", domain.ErrNoRecipient)
		return nil
	}
	if err := s.sender.Send(ctx, n); err != nil {
		return fmt.Errorf("send %s: %w", n.Kind, err)
	}
	s.log.Info("notification sent", "kind", n.Kind, "recipient", n.Recipient)
	return nil
}
