package db

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgrun/internal/logging"
)

// NewRunner builds the process-wide Runner for the resolved settings and
// emits the startup diagnostic line. No connection is established here;
// both strategies connect lazily on first use.
func NewRunner(ctx context.Context, settings *Settings, logger logging.Logger) (Runner, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	id := uuid.NewString()

	switch settings.Pool.Strategy {
	case StrategyBounded:
		runner, err := newPooledRunner(ctx, id, settings)
		if err != nil {
			return nil, err
		}
		logger.Info("[DB] runner %s: host=%s port=%d db=%s sslmode=%s pool=%s(size=%d, overflow=%d)",
			id, settings.Conn.Host, settings.Conn.Port, settings.Conn.Database,
			settings.Connect.SSLMode, settings.Pool.Strategy,
			settings.Pool.Size, settings.Pool.MaxOverflow)
		return runner, nil

	default:
		runner, err := newDirectRunner(id, settings)
		if err != nil {
			return nil, err
		}
		logger.Info("[DB] runner %s: host=%s port=%d db=%s sslmode=%s pool=%s",
			id, settings.Conn.Host, settings.Conn.Port, settings.Conn.Database,
			settings.Connect.SSLMode, settings.Pool.Strategy)
		return runner, nil
	}
}

// applyConnParams maps ConnectParams onto a pgx connection config.
func applyConnParams(cc *pgx.ConnConfig, p ConnectParams) {
	cc.ConnectTimeout = p.ConnectTimeout

	if cc.RuntimeParams == nil {
		cc.RuntimeParams = make(map[string]string)
	}
	cc.RuntimeParams["application_name"] = p.ApplicationName

	// Server-side prepared statements are unsafe when the physical
	// connection may be multiplexed across logical sessions by an
	// intermediary such as PgBouncer, so caching is off unconditionally.
	cc.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cc.StatementCacheCapacity = 0
	cc.DescriptionCacheCapacity = 0

	dialer := &net.Dialer{Timeout: p.ConnectTimeout}
	if p.KeepalivesEnabled {
		dialer.KeepAliveConfig = net.KeepAliveConfig{
			Enable:   true,
			Idle:     p.KeepalivesIdle,
			Interval: p.KeepalivesInterval,
			Count:    p.KeepalivesCount,
		}
	} else {
		dialer.KeepAlive = -1
	}
	cc.DialFunc = dialer.DialContext
}

// PooledRunner executes statements against a bounded pgxpool.
//
// Thread-Safety: safe for concurrent use (pgxpool.Pool is thread-safe).
type PooledRunner struct {
	id              string
	pool            *pgxpool.Pool
	checkoutTimeout time.Duration
}

func newPooledRunner(ctx context.Context, id string, settings *Settings) (*PooledRunner, error) {
	poolConfig, err := pgxpool.ParseConfig(PgxDSN(settings.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	applyConnParams(poolConfig.ConnConfig, settings.Connect)

	// Overflow connections share the pool; pgxpool has a single ceiling.
	poolConfig.MaxConns = settings.Pool.Size + settings.Pool.MaxOverflow
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = settings.Pool.RecycleInterval

	// Liveness check on every checkout; a dead connection is discarded
	// and the acquire retried with a replacement.
	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		return conn.Ping(ctx) == nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &PooledRunner{
		id:              id,
		pool:            pool,
		checkoutTimeout: settings.Pool.CheckoutTimeout,
	}, nil
}

// ID returns the runner's unique identifier, as reported in the startup
// diagnostic line.
func (r *PooledRunner) ID() string { return r.id }

// RunStatement executes one statement in its own transaction on a pooled
// connection. The checkout timeout bounds only the acquire, not the
// statement itself.
func (r *PooledRunner) RunStatement(ctx context.Context, sql string, params map[string]any) (*Result, error) {
	acquireCtx := ctx
	if r.checkoutTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.checkoutTimeout)
		defer cancel()
	}

	conn, err := r.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return runStatement(ctx, conn, sql, params)
}

// Ping verifies pool connectivity.
func (r *PooledRunner) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (r *PooledRunner) Close() {
	r.pool.Close()
}

// DirectRunner opens a fresh connection per statement and closes it
// afterwards (the no-pool strategy).
type DirectRunner struct {
	id         string
	connConfig *pgx.ConnConfig
}

func newDirectRunner(id string, settings *Settings) (*DirectRunner, error) {
	connConfig, err := pgx.ParseConfig(PgxDSN(settings.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	applyConnParams(connConfig, settings.Connect)

	return &DirectRunner{id: id, connConfig: connConfig}, nil
}

// ID returns the runner's unique identifier.
func (r *DirectRunner) ID() string { return r.id }

// RunStatement dials a connection, executes the statement in its own
// transaction, and closes the connection.
func (r *DirectRunner) RunStatement(ctx context.Context, sql string, params map[string]any) (*Result, error) {
	conn, err := pgx.ConnectConfig(ctx, r.connConfig)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	return runStatement(ctx, conn, sql, params)
}

// Ping dials and immediately closes a connection.
func (r *DirectRunner) Ping(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, r.connConfig)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

// Close is a no-op; DirectRunner holds no connections between statements.
func (r *DirectRunner) Close() {}

// beginner is the slice of pgxpool.Conn / pgx.Conn the statement path needs.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// runStatement executes one statement inside a transaction that commits on
// success, materializing the full result before the connection is released.
func runStatement(ctx context.Context, conn beginner, sqlText string, params map[string]any) (*Result, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	var args []any
	if len(params) > 0 {
		args = append(args, pgx.NamedArgs(params))
	}

	rows, err := tx.Query(ctx, sqlText, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	result, err := collectResult(rows)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// collectResult drains rows into a Result. Rows are always closed.
func collectResult(rows pgx.Rows) (*Result, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var collected [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			return nil, err
		}
		collected = append(collected, values)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns: columns,
		Rows:    collected,
		Tag:     rows.CommandTag(),
	}, nil
}

// Compile-time interface checks
var (
	_ Runner = (*PooledRunner)(nil)
	_ Runner = (*DirectRunner)(nil)
)
