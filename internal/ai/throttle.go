package ai

import (
	"context"
	"sync"
	"time"
)

// Throttle defaults.
const (
	DefaultMinInterval    = 1 * time.Second
	DefaultEscalateFactor = 1.5
	DefaultIntervalFloor  = 3 * time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Throttle enforces a minimum gap between the end of one generator call and
// the start of the next. There is one per process, shared by every caller of
// the same endpoint.
//
// minInterval only grows (Escalate) unless Reset is called. The mutex guards
// the fields; it does not serialize callers.
type Throttle struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCall    time.Time
	factor      float64
	floor       time.Duration

	now   func() time.Time
	sleep Sleeper
}

// ThrottleOption configures a Throttle.
type ThrottleOption func(t *Throttle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		t.now = now
	}
}

// WithSleeper replaces SleepContext.
func WithSleeper(s Sleeper) ThrottleOption {
	return func(t *Throttle) {
		t.sleep = s
	}
}

// WithEscalation sets the multiplicative factor (at least 1.5) and the floor
// applied on quota errors.
func WithEscalation(factor float64, floor time.Duration) ThrottleOption {
	return func(t *Throttle) {
		if factor >= DefaultEscalateFactor {
			t.factor = factor
		}
		if floor > 0 {
			t.floor = floor
		}
	}
}

// NewThrottle returns a Throttle with the given starting interval.
func NewThrottle(minInterval time.Duration, opts ...ThrottleOption) *Throttle {
	if minInterval < 0 {
		minInterval = 0
	}
	t := &Throttle{
		minInterval: minInterval,
		factor:      DefaultEscalateFactor,
		floor:       DefaultIntervalFloor,
		now:         time.Now,
		sleep:       SleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Acquire blocks until minInterval has elapsed since the last completed call.
func (t *Throttle) Acquire(ctx context.Context) error {
	t.mu.Lock()
	wait := time.Duration(0)
	if !t.lastCall.IsZero() {
		elapsed := t.now().Sub(t.lastCall)
		if elapsed < t.minInterval {
			wait = t.minInterval - elapsed
		}
	}
	t.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	return t.sleep(ctx, wait)
}

// Release records the end of a call attempt, successful or not.
func (t *Throttle) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastCall = t.now()
}

// Escalate raises minInterval after a quota error and returns the new value.
func (t *Throttle) Escalate() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := time.Duration(float64(t.minInterval) * t.factor)
	if next < t.floor {
		next = t.floor
	}
	t.minInterval = next
	return next
}

// MinInterval returns the current spacing.
func (t *Throttle) MinInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minInterval
}

// Reset sets minInterval back to d. It is the only way the interval shrinks.
func (t *Throttle) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t.minInterval = d
}
