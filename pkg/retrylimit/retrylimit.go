// Package retrylimit retries outbound calls with exponential backoff behind a
// rate limiter that slows down when the remote side pushes back.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultPolicy(), func() error {
//	    return send()
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate grows on success and shrinks
// when the remote side throttles or fails.
type AdaptiveLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	min, max rate.Limit
	stepUp   rate.Limit
	stepDown float64
	calm     time.Duration
	lastHit  time.Time
}

// NewAdaptiveLimiter returns a limiter starting at initial requests per second,
// bounded by [lo, hi]. stepUp is added after a success and stepDown
// multiplies the rate after a throttle.
func NewAdaptiveLimiter(initial, lo, hi, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	lo = max(lo, 1)
	initial = max(initial, lo)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		min:      lo,
		max:      hi,
		stepUp:   stepUp,
		stepDown: stepDown,
		calm:     10 * time.Second,
	}
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error { return a.limiter.Wait(ctx) }

// Success raises the rate unless the limiter was throttled recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastHit) > a.calm {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// Throttled lowers the rate.
func (a *AdaptiveLimiter) Throttled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastHit = time.Now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current rate in requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = min(max(l, a.min), a.max)
	if l == a.limiter.Limit() {
		return
	}
	a.limiter.SetLimit(l)
	a.limiter.SetBurst(burstFor(l))
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

// Class says how a failed attempt is treated.
type Class int

const (
	// Fatal stops retrying and returns the error.
	Fatal Class = iota
	// Retry backs off and tries again.
	Retry
	// Throttle slows the limiter and retries after Policy.ThrottleDelay.
	Throttle
)

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// FatalError marks an error as not worth retrying.
type FatalError struct{ Err error }

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Policy configures Do.
type Policy struct {
	Attempts      int
	Delay         time.Duration
	MaxDelay      time.Duration
	ThrottleDelay time.Duration
	Multiplier    float64
	Jitter        bool
	// Status extracts an HTTP status from err; 0 means unknown.
	Status func(err error) int
	Logger zerolog.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:      5,
		Delay:         500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		ThrottleDelay: 100 * time.Millisecond,
		Multiplier:    2,
		Jitter:        true,
		Status:        statusOf,
		Logger:        zerolog.Nop(),
	}
}

func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// Classify decides how err is retried. Errors without a status are retried;
// 4xx other than 429 are fatal.
func (p Policy) Classify(err error) Class {
	var fatal *FatalError
	if errors.As(err, &fatal) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}
	status := 0
	if p.Status != nil {
		status = p.Status(err)
	}
	switch {
	case status == http.StatusTooManyRequests:
		return Throttle
	case status >= 500:
		return Retry
	case status >= 400:
		return Fatal
	}
	return Retry
}

// ErrAttemptsExceeded wraps the last error once Policy.Attempts is used up.
var ErrAttemptsExceeded = errors.New("retry attempts exceeded")

// Do calls fn until it succeeds, fails fatally, ctx ends or the attempts run
// out. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, p Policy, fn func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}
		last = fn()
		if last == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				p.Logger.Debug().Int("attempt", attempt).Msg("request succeeded after retry")
			}
			return nil
		}

		wait := delay
		switch p.Classify(last) {
		case Fatal:
			return last
		case Throttle:
			if lim != nil {
				lim.Throttled()
			}
			wait = p.ThrottleDelay
		default:
			if p.Jitter && wait > 0 {
				wait += rand.N(wait/4 + 1)
			}
			delay = min(time.Duration(float64(delay)*p.Multiplier), p.MaxDelay)
		}
		if attempt == attempts {
			break
		}
		p.Logger.Warn().Err(last).Int("attempt", attempt).Dur("wait", wait).Msg("request failed, retrying")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("%w (%d): %w", ErrAttemptsExceeded, attempts, last)
}
