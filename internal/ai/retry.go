package ai

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio_analyzer/internal/models"
)

// Generator is one free-text generation backend.
//
// An empty string with a nil error means the service answered without text.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
}

// Retry defaults.
const (
	DefaultMaxAttempts    = 3
	DefaultTransientDelay = 2 * time.Second
	quotaBackoffStep      = 30 * time.Second
	quotaBackoffMax       = 120 * time.Second
)

// Invoker wraps a Generator with throttling and bounded retries.
type Invoker struct {
	generator      Generator
	throttle       *Throttle
	maxAttempts    int
	transientDelay time.Duration
	sleep          Sleeper
	logger         *zap.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(inv *Invoker)

// WithMaxAttempts sets the attempt budget (at least 1).
func WithMaxAttempts(n int) InvokerOption {
	return func(inv *Invoker) {
		if n > 0 {
			inv.maxAttempts = n
		}
	}
}

// WithRetrySleeper replaces the sleeper used between attempts.
func WithRetrySleeper(s Sleeper) InvokerOption {
	return func(inv *Invoker) {
		inv.sleep = s
	}
}

// WithTransientDelay sets the pause after a non-quota error.
func WithTransientDelay(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.transientDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) InvokerOption {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

// NewInvoker returns an Invoker calling gen through throttle. A nil throttle
// gets a private one with the default interval.
func NewInvoker(gen Generator, throttle *Throttle, opts ...InvokerOption) *Invoker {
	if throttle == nil {
		throttle = NewThrottle(DefaultMinInterval)
	}
	inv := &Invoker{
		generator:      gen,
		throttle:       throttle,
		maxAttempts:    DefaultMaxAttempts,
		transientDelay: DefaultTransientDelay,
		sleep:          SleepContext,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// QuotaBackoff is the wait after a quota error on the given zero-based attempt.
func QuotaBackoff(attempt int) time.Duration {
	d := quotaBackoffStep * time.Duration(attempt+1)
	if d > quotaBackoffMax {
		return quotaBackoffMax
	}
	return d
}

// Invoke runs req with retries and returns the trimmed text.
//
// ("", nil) means every attempt ended without usable text (quota errors or
// empty responses); the caller applies its own fallback. A *TerminalError is
// returned when the last attempt fails with a non-quota error. Context
// cancellation during a wait is returned as is.
func (inv *Invoker) Invoke(ctx context.Context, req models.GenerationRequest) (string, error) {
	log := inv.logger.With(zap.String("call_id", uuid.NewString()))

	for attempt := 0; attempt < inv.maxAttempts; attempt++ {
		last := attempt == inv.maxAttempts-1

		if err := inv.throttle.Acquire(ctx); err != nil {
			return "", err
		}

		log.Info("Sending request to generator", zap.Int("attempt", attempt+1))
		text, err := inv.generator.Generate(ctx, req)
		inv.throttle.Release()

		if err != nil {
			log.Error("Generator attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))

			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			if IsQuotaError(err) {
				if !last {
					wait := QuotaBackoff(attempt)
					log.Warn("Rate limit hit, backing off", zap.Duration("wait", wait))
					if err := inv.sleep(ctx, wait); err != nil {
						return "", err
					}
				}
				next := inv.throttle.Escalate()
				log.Warn("Throttle interval raised", zap.Duration("min_interval", next))
				continue
			}

			if last {
				return "", &TerminalError{Attempts: attempt + 1, Err: err}
			}
			if err := inv.sleep(ctx, inv.transientDelay); err != nil {
				return "", err
			}
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			log.Warn("Empty response received", zap.Int("attempt", attempt+1))
			continue
		}

		log.Info("Successfully received response", zap.Int("bytes", len(text)))
		return text, nil
	}

	log.Warn("Generator attempts exhausted without output", zap.Int("attempts", inv.maxAttempts))
	return "", nil
}

// Throttle exposes the shared throttle.
func (inv *Invoker) Throttle() *Throttle {
	return inv.throttle
}
