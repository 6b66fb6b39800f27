package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/liquidity-lens/internal/testutil"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", cfg, testutil.QuietLogger())
	cb.now = clock.now
	cb.lastStateChange = clock.t
	return cb, clock
}

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("memo", CircuitBreakerConfig{}, nil)
	assert.Equal(t, DefaultCircuitBreakerConfig(), cb.config)
	assert.Equal(t, Closed, cb.GetState())
	assert.NotNil(t, cb.logger)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, Timeout: time.Second})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	}
	assert.Equal(t, Closed, cb.GetState())

	// a success resets the consecutive count
	require.NoError(t, cb.Execute(ctx, succeed))
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, fail)
	}
	assert.Equal(t, Closed, cb.GetState())

	_ = cb.Execute(ctx, fail)
	assert.Equal(t, Open, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := cb.GetStats()
	assert.Equal(t, int64(7), stats.TotalRequests)
	assert.Equal(t, int64(5), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.SuccessfulRequests)
	assert.Equal(t, int64(1), stats.RejectedRequests)
	assert.Equal(t, int64(1), stats.StateChanges)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Second})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.Equal(t, Open, cb.GetState())

	clock.advance(5 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)

	clock.advance(5 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, HalfOpen, cb.GetState())

	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Second})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.advance(time.Second)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, Open, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second, MaxRequests: 1})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.advance(time.Second)

	var nested error
	err := cb.Execute(ctx, func(ctx context.Context) error {
		nested = cb.Execute(ctx, succeed)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrCircuitOpen)
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, Open, cb.GetState())

	cb.Reset()
	assert.Equal(t, Closed, cb.GetState())
	assert.NoError(t, cb.Execute(context.Background(), succeed))
}

func TestCircuitBreaker_LateResultFromEarlierState(t *testing.T) {
	tests := []struct {
		name string
		late func(context.Context) error
	}{
		{"late failure does not reopen", fail},
		{"late success does not close", succeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Second})
			ctx := context.Background()

			// admitted while closed, finishes after the breaker tripped and began probing
			_ = cb.Execute(ctx, func(ctx context.Context) error {
				_ = cb.Execute(ctx, fail)
				require.Equal(t, Open, cb.GetState())
				clock.advance(time.Second)
				require.NoError(t, cb.Execute(ctx, succeed))
				require.Equal(t, HalfOpen, cb.GetState())
				return tt.late(ctx)
			})

			assert.Equal(t, HalfOpen, cb.GetState())
			assert.Equal(t, int64(2), cb.GetStats().StateChanges)

			require.NoError(t, cb.Execute(ctx, succeed))
			assert.Equal(t, Closed, cb.GetState())
		})
	}
}

func TestCircuitBreaker_CanceledCallsAreNeutral(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, cb.GetState())

	stats := cb.GetStats()
	assert.Equal(t, int64(1), stats.CanceledRequests)
	assert.Zero(t, stats.FailedRequests)
	assert.Zero(t, stats.SuccessfulRequests)

	// a failure on a live context still trips it
	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, Open, cb.GetState())
}
