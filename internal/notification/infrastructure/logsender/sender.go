// Package logsender delivers notifications by writing them to the log.
// Mail transport is out of scope; swap in a real Sender to send email.
package logsender

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/domain"
)

type Sender struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, n domain.Notification) error {
	s.log.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"to", n.Recipient,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}
