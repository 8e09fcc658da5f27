package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait after the given attempt.
	// attempt is zero-indexed (0 = delay after the first attempt).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the total attempt budget (1 = no retries).
	MaxAttempts() int
}

// ExponentialBackoff implements exponential backoff.
//
// The default configuration matches the executor's operational profile:
// the delay doubles after every attempt, with no jitter and no upper
// bound. A cap and jitter are available through options for callers with
// large attempt budgets.
type ExponentialBackoff struct {
	// initialDelay is the delay after the first failed attempt
	initialDelay time.Duration

	// maxDelay bounds the delay between attempts; zero means unbounded
	maxDelay time.Duration

	// multiplier is the factor by which the delay increases
	multiplier float64

	// maxAttempts is the total attempt budget (1 = single attempt, no retries)
	maxAttempts int

	// jitter adds randomness to prevent thundering herd (0.0-1.0);
	// zero disables jitter entirely
	jitter float64

	// jitterFunc provides random values [0, 1) for jitter calculation
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay after the first failed attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay sets an upper bound on the delay between attempts.
// Zero means no bound.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which the delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0) to add randomness to delays.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom function for generating random jitter values.
// Tests should set a deterministic function.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates an exponential backoff strategy with the
// given total attempt budget. Defaults: 1s initial delay, multiplier 2.0,
// no jitter, no delay cap.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 1 * time.Second,
		maxDelay:     0,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NextDelay calculates the delay for the given zero-indexed attempt.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))

	if b.maxDelay > 0 && delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}

		// delay * (1 +/- jitter * random), random mapped from [0,1) to [-1,1)
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + (b.jitter * randomOffset)
	}

	return time.Duration(delay)
}

// MaxAttempts returns the total attempt budget.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// InitialDelay returns the initial delay for tests and debugging.
func (b *ExponentialBackoff) InitialDelay() time.Duration {
	return b.initialDelay
}

// MaxDelay returns the delay bound for tests and debugging.
func (b *ExponentialBackoff) MaxDelay() time.Duration {
	return b.maxDelay
}

// Multiplier returns the backoff multiplier for tests and debugging.
func (b *ExponentialBackoff) Multiplier() float64 {
	return b.multiplier
}
