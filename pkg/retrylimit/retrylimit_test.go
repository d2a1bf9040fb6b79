package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fast() Policy {
	p := DefaultPolicy()
	p.Delay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	p.ThrottleDelay = time.Millisecond
	p.Jitter = false
	return p
}

func TestRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fast(), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusBadGateway)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestClientErrorIsFatal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fast(), func() error {
		calls++
		return statusErr(http.StatusForbidden)
	})
	assert.Equal(t, statusErr(http.StatusForbidden), err)
	assert.Equal(t, 1, calls)

	calls = 0
	boom := errors.New("boom")
	err = Do(context.Background(), nil, fast(), func() error {
		calls++
		return &FatalError{Err: boom}
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAttemptsExceeded(t *testing.T) {
	p := fast()
	p.Attempts = 2
	calls := 0
	last := errors.New("flaky")
	err := Do(context.Background(), nil, p, func() error {
		calls++
		return last
	})
	assert.ErrorIs(t, err, ErrAttemptsExceeded)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 2, calls)
}

func TestThrottleSlowsLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(100, 1, 100, 1, 0.5)
	calls := 0
	err := Do(context.Background(), lim, fast(), func() error {
		calls++
		if calls == 1 {
			return statusErr(http.StatusTooManyRequests)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, lim.Limit())

	// success right after a throttle keeps the lowered rate
	lim.Success()
	assert.Equal(t, 50.0, lim.Limit())
}

func TestLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(0, 0, 4, 10, 0.1)
	assert.Equal(t, 1.0, lim.Limit())
	lim.calm = 0
	lim.Success()
	assert.Equal(t, 4.0, lim.Limit())
	lim.Throttled()
	assert.Equal(t, 1.0, lim.Limit())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := fast()
	p.Delay = time.Hour
	err := Do(ctx, nil, p, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}
