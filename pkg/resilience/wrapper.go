// Package resilience guards calls to a remote dependency with bounded
// retries, a circuit breaker and a caller-supplied fallback.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var ErrCircuitOpen = errors.New("circuit open")

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

type Config struct {
	// MaxAttempts bounds the total number of tries, first call included.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration

	// The breaker trips when, within one Window, at least MinRequests calls
	// were made and the failure ratio exceeds FailureRate.
	FailureRate float64
	MinRequests uint32
	Window      time.Duration
	OpenTimeout time.Duration
	HalfOpenMax uint32

	// IsTransient decides whether a failure may be retried and counts
	// against the breaker. Defaults to IsTransient.
	IsTransient func(error) bool
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		AttemptTimeout: 2 * time.Second,
		FailureRate:    0.5,
		MinRequests:    10,
		Window:         30 * time.Second,
		OpenTimeout:    15 * time.Second,
		HalfOpenMax:    3,
	}
}

// Wrapper owns the breaker state for one downstream dependency. Build one per
// dependency at startup and share it between every call to that dependency.
type Wrapper struct {
	name    string
	cfg     Config
	log     *slog.Logger
	breaker *gobreaker.CircuitBreaker[any]
}

func New(name string, cfg Config, log *slog.Logger) *Wrapper {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.IsTransient == nil {
		cfg.IsTransient = IsTransient
	}
	w := &Wrapper{name: name, cfg: cfg, log: log}
	w.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMax,
		Interval:    cfg.Window,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests || c.Requests == 0 {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) > cfg.FailureRate
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !cfg.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit state changed", "breaker", name, "from", mapState(from), "to", mapState(to))
		},
	})
	return w
}

func (w *Wrapper) Name() string { return w.name }

func (w *Wrapper) State() State { return mapState(w.breaker.State()) }

// Execute runs call under the retry and breaker policy and returns the last
// failure when every allowed attempt failed. A non-transient failure and an
// open circuit end the loop immediately.
func Execute[Req, Res any](ctx context.Context, w *Wrapper, req Req, call func(context.Context, Req) (Res, error)) (Res, error) {
	var out Res
	attempt := 0
	op := func() error {
		attempt++
		v, err := w.breaker.Execute(func() (any, error) {
			actx, cancel := w.attemptContext(ctx)
			defer cancel()
			return call(actx, req)
		})
		switch {
		case err == nil:
			out, _ = v.(Res)
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(fmt.Errorf("%s: %w", w.name, ErrCircuitOpen))
		case ctx.Err() != nil, !w.cfg.IsTransient(err):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, wait time.Duration) {
		w.log.Warn("retrying call", "dependency", w.name, "attempt", attempt, "wait", wait, "err", err)
	}
	err := backoff.RetryNotify(op, w.backOff(ctx), notify)
	return out, err
}

// Do is Execute with the failure branch resolved by fallback. The fallback
// receives the original request and the final failure.
func Do[Req, Res any](ctx context.Context, w *Wrapper, req Req, call func(context.Context, Req) (Res, error), fallback func(Req, error) Res) Res {
	res, err := Execute(ctx, w, req, call)
	if err != nil {
		w.log.Warn("call failed, using fallback", "dependency", w.name, "state", w.State(), "err", err)
		return fallback(req, err)
	}
	return res
}

func (w *Wrapper) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.cfg.AttemptTimeout)
}

func (w *Wrapper) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if w.cfg.InitialBackoff > 0 {
		b.InitialInterval = w.cfg.InitialBackoff
	}
	if w.cfg.MaxBackoff > 0 {
		b.MaxInterval = w.cfg.MaxBackoff
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.cfg.MaxAttempts-1)), ctx)
}

func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
