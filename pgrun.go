package pgrun

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"

	"github.com/vvka-141/pgrun/internal/config"
	"github.com/vvka-141/pgrun/internal/db"
	"github.com/vvka-141/pgrun/internal/logging"
	"github.com/vvka-141/pgrun/internal/retry"
)

// ErrNoConnectionString is returned by Open when neither DATABASE_URL nor
// SUPABASE_DB_URL is set. This is a fatal configuration error: the process
// must not start without a database.
var ErrNoConnectionString = db.ErrNoConnectionString

// Result is the materialized outcome of one statement execution.
type Result = db.Result

// StatementRunner executes single statements against a connection source.
// Open wires the production implementation; tests inject doubles through New.
type StatementRunner = db.Runner

// DB executes SQL statements against one process-wide connection source,
// retrying transient connection failures with exponential backoff.
//
// Thread-Safety: safe for concurrent use; pool bookkeeping is delegated to
// the underlying runner and backoff sleeps block only the calling goroutine.
type DB struct {
	runner   StatementRunner
	logger   logging.Logger
	standard *retry.Executor
	fast     *retry.Executor
}

// Open resolves the environment, normalizes the connection URL, builds the
// configured runner (bounded pool or connect-per-statement), and returns a
// ready DB. Call once at process start; the DB lives for the process
// lifetime. A .env file in the working directory is honored.
func Open(ctx context.Context, opts ...Option) (*DB, error) {
	_ = godotenv.Load()

	o := applyOptions(opts)

	projectConfig, err := config.Load(o.projectDir)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, err
	}

	settings, err := db.Resolve(db.LoadFromEnvironment(), projectConfig)
	if err != nil {
		return nil, err
	}

	runner, err := db.NewRunner(ctx, settings, o.logger)
	if err != nil {
		return nil, err
	}

	return New(runner, opts...), nil
}

// New builds a DB around an existing runner. Most callers want Open; New is
// the seam for tests and for processes that construct multiple isolated
// instances.
func New(runner StatementRunner, opts ...Option) *DB {
	o := applyOptions(opts)

	d := &DB{
		runner: runner,
		logger: o.logger,
	}
	d.standard = d.newExecutor(StandardMaxAttempts, StandardInitialDelay, o.sleep)
	d.fast = d.newExecutor(FastMaxAttempts, FastInitialDelay, o.sleep)
	return d
}

func (d *DB) newExecutor(maxAttempts int, initialDelay time.Duration, sleep SleepFunc) *retry.Executor {
	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(maxAttempts, retry.WithInitialDelay(initialDelay))

	executor := retry.NewExecutor(classifier, strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			d.logger.Warn("connection failed on attempt %d/%d: %s", attempt, maxAttempts, truncateError(err))
			d.logger.Warn("retrying in %s...", delay)
		})

	if sleep != nil {
		executor = executor.WithSleep(sleep)
	}
	return executor
}

// ExecuteStandard runs one SQL statement with the standard retry profile
// (3 attempts, 1s initial backoff). params maps placeholder names to
// values; pass nil for statements without parameters.
func (d *DB) ExecuteStandard(ctx context.Context, sql string, params map[string]any) (*Result, error) {
	return d.execute(ctx, d.standard, sql, params)
}

// ExecuteFast runs one SQL statement with the fast retry profile
// (2 attempts, 0.5s initial backoff), for latency-sensitive simple
// statements.
func (d *DB) ExecuteFast(ctx context.Context, sql string, params map[string]any) (*Result, error) {
	return d.execute(ctx, d.fast, sql, params)
}

// execute runs the statement under the given retry executor. Errors are
// logged (truncated) and returned to the caller unchanged, so driver error
// types survive for errors.As.
func (d *DB) execute(ctx context.Context, executor *retry.Executor, sql string, params map[string]any) (*Result, error) {
	var result *Result

	err := executor.Execute(ctx, func(ctx context.Context) error {
		var runErr error
		result, runErr = d.runner.RunStatement(ctx, sql, params)
		return runErr
	})
	if err != nil {
		d.logger.Error("database error: %s", truncateError(err))
		return nil, err
	}

	return result, nil
}

// Close releases the underlying runner's connections.
func (d *DB) Close() {
	d.runner.Close()
}

// truncateError bounds an error message for log output.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) <= MaxErrorPreviewLength {
		return msg
	}
	return msg[:MaxErrorPreviewLength] + "..."
}
