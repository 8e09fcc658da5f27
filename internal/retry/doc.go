// Package retry provides automatic retry logic with exponential backoff
// for transient database connection failures.
//
// The package supports pluggable error classification and backoff strategies.
//
// # Example Usage
//
//	classifier := retry.NewPostgreSQLErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3, retry.WithInitialDelay(time.Second))
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return runStatement(ctx)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient
// (retryable) versus fatal (non-retryable). The PostgreSQLErrorClassifier
// recognizes transient connection failures by SQLSTATE class where the
// driver exposes one, falling back to well-known message substrings.
// Statement-level errors (syntax errors, constraint violations) are never
// classified as transient.
//
// # Backoff
//
// ExponentialBackoff doubles the delay after each attempt. By default there
// is no jitter and no upper bound on the delay; both can be enabled through
// options when an attempt budget is large enough to need them.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry and WithSleep
// return independent copies, so per-caller configuration never mutates a
// shared executor.
package retry
