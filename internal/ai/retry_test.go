package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_analyzer/internal/models"
)

// newTestInvoker wires gen, a throttle and the retry loop to one fake clock.
// Throttle waits and retry waits are recorded separately.
func newTestInvoker(gen *scriptedGenerator) (*Invoker, *fakeClock, *[]time.Duration) {
	clock := newFakeClock()
	gen.clock = clock

	var retryWaits []time.Duration
	retrySleep := func(ctx context.Context, d time.Duration) error {
		retryWaits = append(retryWaits, d)
		clock.Advance(d)
		return ctx.Err()
	}

	th := NewThrottle(DefaultMinInterval, WithClock(clock.Now), WithSleeper(clock.Sleep))
	inv := NewInvoker(gen, th, WithRetrySleeper(retrySleep))
	return inv, clock, &retryWaits
}

func TestQuotaBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 90 * time.Second},
		{3, 120 * time.Second},
		{4, 120 * time.Second},
		{10, 120 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuotaBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestInvoke_SuccessFirstAttempt(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "  {\"a\": 1}\n"}}}
	inv, clock, waits := newTestInvoker(gen)

	req := models.NewGenerationRequest("hello")
	text, err := inv.Invoke(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, text)
	assert.Len(t, gen.starts, 1)
	assert.Equal(t, req, gen.requests[0])
	assert.Empty(t, *waits)
	assert.Empty(t, clock.sleeps)
}

func TestInvoke_QuotaExhaustion(t *testing.T) {
	quota := &QuotaError{StatusCode: 429, Body: "Resource has been exhausted"}
	gen := &scriptedGenerator{replies: []reply{{err: quota}, {err: quota}, {err: quota}}}
	inv, _, waits := newTestInvoker(gen)

	text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Len(t, gen.starts, 3)
	// No backoff after the final attempt.
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *waits)
	// 1s -> 3s -> 4.5s -> 6.75s
	assert.Equal(t, 6750*time.Millisecond, inv.Throttle().MinInterval())
}

func TestInvoke_QuotaThenSuccess(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")},
		{text: "ok"},
	}}
	inv, _, waits := newTestInvoker(gen)

	text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []time.Duration{30 * time.Second}, *waits)
	assert.Equal(t, 3*time.Second, inv.Throttle().MinInterval())
}

func TestInvoke_TransientThenSuccess(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: errors.New("connection reset by peer")},
		{text: "done"},
	}}
	inv, _, waits := newTestInvoker(gen)

	text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, []time.Duration{DefaultTransientDelay}, *waits)
	assert.Equal(t, DefaultMinInterval, inv.Throttle().MinInterval())
}

func TestInvoke_TerminalError(t *testing.T) {
	boom := errors.New("invalid argument")
	gen := &scriptedGenerator{replies: []reply{{err: boom}, {err: boom}, {err: boom}}}
	inv, _, waits := newTestInvoker(gen)

	text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

	require.Error(t, err)
	assert.Empty(t, text)
	assert.ErrorIs(t, err, boom)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, 3, terminal.Attempts)
	assert.Equal(t, []time.Duration{DefaultTransientDelay, DefaultTransientDelay}, *waits)
}

func TestInvoke_QuotaOnLastAttemptIsNotTerminal(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: errors.New("bad gateway")},
		{err: errors.New("bad gateway")},
		{err: &QuotaError{StatusCode: 429}},
	}}
	inv, _, _ := newTestInvoker(gen)

	text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestInvoke_EmptyResponses(t *testing.T) {
	t.Run("Recovered", func(t *testing.T) {
		gen := &scriptedGenerator{replies: []reply{{text: ""}, {text: " \n\t"}, {text: "ok"}}}
		inv, clock, waits := newTestInvoker(gen)

		text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Empty(t, *waits)
		// Throttle spaced the back-to-back attempts.
		assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
	})

	t.Run("Exhausted", func(t *testing.T) {
		gen := &scriptedGenerator{}
		inv, _, _ := newTestInvoker(gen)

		text, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))

		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Len(t, gen.starts, DefaultMaxAttempts)
	})
}

func TestInvoke_SpacingBetweenAttempts(t *testing.T) {
	quota := &QuotaError{StatusCode: 429}
	gen := &scriptedGenerator{
		replies:  []reply{{err: quota}, {text: ""}, {text: "ok"}},
		duration: 250 * time.Millisecond,
	}
	inv, _, _ := newTestInvoker(gen)

	_, err := inv.Invoke(context.Background(), models.NewGenerationRequest("p"))
	require.NoError(t, err)
	require.Len(t, gen.starts, 3)

	// After the quota error the interval is 3s; the empty reply is followed by
	// a throttle wait of 3s since the end of that call.
	end := gen.starts[1].Add(gen.duration)
	assert.GreaterOrEqual(t, gen.starts[2].Sub(end), 3*time.Second)
}

func TestInvoke_ContextCanceled(t *testing.T) {
	gen := &scriptedGenerator{clock: newFakeClock()}
	inv := NewInvoker(gen, NewThrottle(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inv.Invoke(ctx, models.NewGenerationRequest("p"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.starts)
}

func TestInvoke_SharedThrottle(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottle(time.Second, WithClock(clock.Now), WithSleeper(clock.Sleep))

	first := &scriptedGenerator{clock: clock, replies: []reply{{err: &QuotaError{StatusCode: 429}}, {text: "a"}}}
	second := &scriptedGenerator{clock: clock, replies: []reply{{text: "b"}}}
	noWait := WithRetrySleeper(func(ctx context.Context, d time.Duration) error { return nil })

	_, err := NewInvoker(first, th, noWait).Invoke(context.Background(), models.NewGenerationRequest("p"))
	require.NoError(t, err)
	_, err = NewInvoker(second, th, noWait).Invoke(context.Background(), models.NewGenerationRequest("p"))
	require.NoError(t, err)

	// The escalation from the first invoker applies to the second.
	assert.Equal(t, 3*time.Second, th.MinInterval())
	lastEnd := first.starts[len(first.starts)-1]
	assert.GreaterOrEqual(t, second.starts[0].Sub(lastEnd), 3*time.Second)
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Typed", &QuotaError{StatusCode: 429}, true},
		{"Wrapped", fmt.Errorf("call: %w", &QuotaError{StatusCode: 429}), true},
		{"Sentinel", ErrQuotaExceeded, true},
		{"Status text", errors.New("Error 429: too many requests"), true},
		{"Quota text", errors.New("Quota exceeded for metric"), true},
		{"SDK status", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"Rate limit", errors.New("Rate limit reached"), true},
		{"Server error", errors.New("AI API error 500: internal"), false},
		{"Network", errors.New("dial tcp: connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuotaError(tt.err))
		})
	}
}
