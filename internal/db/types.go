// Package db resolves, sanitizes, and connects to a PostgreSQL database.
//
// The package derives one immutable Settings value from the process
// environment (URL normalization, SSL-mode defaulting, connection and pool
// parameters) and builds a Runner from it: either a bounded pgxpool-backed
// pool or a connect-per-statement runner for deployments that sit behind an
// external connection multiplexer.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoConnectionString is the fatal startup error returned when neither
// DATABASE_URL nor SUPABASE_DB_URL is set.
var ErrNoConnectionString = errors.New("DATABASE_URL or SUPABASE_DB_URL must be set")

// ConnectionConfig is the parsed connection descriptor: database location,
// credential, and query parameters. Immutable after construction.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AdditionalParams holds query parameters other than sslmode.
	AdditionalParams map[string]string
}

// ConnectParams are the physical-connection parameters applied to every
// connection regardless of pooling strategy.
type ConnectParams struct {
	SSLMode            string
	ConnectTimeout     time.Duration
	KeepalivesEnabled  bool
	KeepalivesIdle     time.Duration
	KeepalivesInterval time.Duration
	KeepalivesCount    int
	ApplicationName    string
}

// PoolStrategy selects how physical connections are managed.
type PoolStrategy int

const (
	// StrategyNullPool opens and closes a fresh connection per statement.
	// Required behind an external multiplexer (PgBouncer and friends) to
	// avoid pool-of-pools behavior.
	StrategyNullPool PoolStrategy = iota

	// StrategyBounded keeps a fixed-size reusable pool with overflow,
	// checkout timeout, and periodic recycling of long-lived connections.
	StrategyBounded
)

// String returns a human-readable name for the strategy.
func (s PoolStrategy) String() string {
	switch s {
	case StrategyNullPool:
		return "nullpool"
	case StrategyBounded:
		return "bounded"
	default:
		return "unknown"
	}
}

// PoolSettings configures the bounded strategy. Ignored for StrategyNullPool.
type PoolSettings struct {
	Strategy        PoolStrategy
	Size            int32
	MaxOverflow     int32
	CheckoutTimeout time.Duration
	RecycleInterval time.Duration
}

// Settings is everything needed to build a Runner, resolved once at startup.
// The normalized URL and ConnectParams both derive from the same resolution
// pass, so the SSL mode in the URL and in the connection parameters never
// disagree.
type Settings struct {
	// URL is the canonical, driver-qualified, SSL-annotated connection string.
	URL string

	Conn    *ConnectionConfig
	Connect ConnectParams
	Pool    PoolSettings
}

// Result is the materialized outcome of one statement execution. Rows are
// collected before the connection returns to the pool, so a successful
// Result is always fully readable with no connection pinned behind it.
type Result struct {
	Columns []string
	Rows    [][]any
	Tag     pgconn.CommandTag
}

// RowsAffected reports the number of rows affected by the statement.
func (r *Result) RowsAffected() int64 {
	return r.Tag.RowsAffected()
}

// Runner executes single SQL statements against a connection source.
// Implementations are safe for concurrent use.
type Runner interface {
	// RunStatement executes one statement in its own transaction, which
	// commits on success. params maps placeholder names to values; nil
	// means the statement has no parameters.
	RunStatement(ctx context.Context, sql string, params map[string]any) (*Result, error)

	// Ping verifies connectivity with a cheap round-trip.
	Ping(ctx context.Context) error

	// Close releases any held connections. The Runner must not be used
	// afterwards.
	Close()
}
