package retry

import (
	"context"
	"time"
)

// SleepFunc waits for the given duration or until the context is done.
// The executor's default implementation uses a timer; tests inject a
// recorder so backoff behavior can be verified without wall-clock waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor orchestrates retry attempts with backoff and error classification.
//
// Thread Safety:
// The Executor itself is safe for concurrent use when calling Execute().
// WithOnRetry() and WithSleep() return a NEW instance with the field
// configured, so each caller can have its own configuration without
// shared state. The original Executor remains unchanged.
type Executor struct {
	classifier ErrorClassifier
	strategy   BackoffStrategy
	sleep      SleepFunc
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier ErrorClassifier, strategy BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		sleep:      timerSleep,
	}
}

// WithOnRetry returns a new Executor with the specified retry callback.
// The callback fires before each backoff wait, with the one-indexed attempt
// that just failed, its error, and the upcoming delay.
//
// This method does NOT modify the receiver; it returns a new instance.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithSleep returns a new Executor using the given sleep function.
// Production code keeps the default; tests inject a deterministic recorder.
//
// This method does NOT modify the receiver; it returns a new instance.
func (e *Executor) WithSleep(sleep SleepFunc) *Executor {
	clone := *e
	clone.sleep = sleep
	return &clone
}

// Execute runs the operation until it succeeds, fails fatally, or the
// attempt budget is exhausted.
//
// The strategy's MaxAttempts is the total budget: a budget of 3 means at
// most 3 operation calls and 2 backoff waits. A non-transient error stops
// retrying immediately regardless of attempts remaining. When the budget
// is exhausted the last observed error is returned unchanged.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		delay := e.strategy.NextDelay(attempt - 1)

		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// timerSleep is the default SleepFunc, waiting on a timer while honoring
// context cancellation.
func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
