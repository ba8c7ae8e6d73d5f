package shutdown

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
)

// Timeout bounds how long a service spends draining after a signal.
const Timeout = 10 * time.Second

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Step is one teardown action, e.g. http.Server.Shutdown.
type Step func(ctx context.Context) error

// Drain blocks until ctx is done, then runs steps in order under a fresh
// deadline of timeout. Every step runs even if an earlier one fails.
func Drain(ctx context.Context, timeout time.Duration, steps ...Step) error {
	<-ctx.Done()

	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step(drainCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
