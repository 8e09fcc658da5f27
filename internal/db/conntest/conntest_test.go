//go:build conntest

package conntest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgrun/internal/db"
	"github.com/vvka-141/pgrun/internal/logging"
	"github.com/vvka-141/pgrun/internal/testinfra"
)

// settingsFor resolves Settings from a container's connection string,
// exercising the full normalization pipeline on a real URL.
func settingsFor(t *testing.T, connString string, strategy db.PoolStrategy) *db.Settings {
	t.Helper()

	env := &db.EnvVars{
		DATABASE_URL:    connString,
		DB_USE_NULLPOOL: "true",
	}
	if strategy == db.StrategyBounded {
		env.DB_USE_NULLPOOL = "false"
		env.DB_POOL_SIZE = "2"
		env.DB_MAX_OVERFLOW = "1"
		env.DB_POOL_TIMEOUT = "5"
		env.DB_POOL_RECYCLE = "60"
	}

	settings, err := db.Resolve(env, nil)
	require.NoError(t, err)
	return settings
}

func startContainer(t *testing.T) *testinfra.PostgresContainer {
	t.Helper()

	ctx := context.Background()
	ctr, err := testinfra.StartPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})
	return ctr
}

func TestRunStatement_DirectRunner(t *testing.T) {
	ctr := startContainer(t)
	ctx := context.Background()

	settings := settingsFor(t, ctr.ConnString, db.StrategyNullPool)
	runner, err := db.NewRunner(ctx, settings, logging.NewNullLogger())
	require.NoError(t, err)
	defer runner.Close()

	require.NoError(t, runner.Ping(ctx))

	result, err := runner.RunStatement(ctx, "SELECT 1 AS answer, 'ok' AS status", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"answer", "status"}, result.Columns)
	require.Len(t, result.Rows, 1)
}

func TestRunStatement_PooledRunner(t *testing.T) {
	ctr := startContainer(t)
	ctx := context.Background()

	settings := settingsFor(t, ctr.ConnString, db.StrategyBounded)
	runner, err := db.NewRunner(ctx, settings, logging.NewNullLogger())
	require.NoError(t, err)
	defer runner.Close()

	require.NoError(t, runner.Ping(ctx))

	_, err = runner.RunStatement(ctx,
		"CREATE TABLE IF NOT EXISTS items (id serial PRIMARY KEY, name text NOT NULL)", nil)
	require.NoError(t, err)

	insert, err := runner.RunStatement(ctx,
		"INSERT INTO items (name) VALUES (@name)", map[string]any{"name": "widget"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), insert.RowsAffected())

	rows, err := runner.RunStatement(ctx,
		"SELECT name FROM items WHERE name = @name", map[string]any{"name": "widget"})
	require.NoError(t, err)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "widget", rows.Rows[0][0])
}

func TestRunStatement_CommitsPerStatement(t *testing.T) {
	ctr := startContainer(t)
	ctx := context.Background()

	settings := settingsFor(t, ctr.ConnString, db.StrategyNullPool)
	runner, err := db.NewRunner(ctx, settings, logging.NewNullLogger())
	require.NoError(t, err)
	defer runner.Close()

	_, err = runner.RunStatement(ctx,
		"CREATE TABLE durable (id int PRIMARY KEY)", nil)
	require.NoError(t, err)

	_, err = runner.RunStatement(ctx, "INSERT INTO durable VALUES (1)", nil)
	require.NoError(t, err)

	// DirectRunner closes its connection after each statement; the row must
	// survive into a brand-new connection.
	result, err := runner.RunStatement(ctx, "SELECT count(*) FROM durable", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Rows[0][0])
}

func TestPooledRunner_CheckoutTimeout(t *testing.T) {
	ctr := startContainer(t)
	ctx := context.Background()

	env := &db.EnvVars{
		DATABASE_URL:    ctr.ConnString,
		DB_USE_NULLPOOL: "false",
		DB_POOL_SIZE:    "1",
		DB_MAX_OVERFLOW: "0",
		DB_POOL_TIMEOUT: "1",
	}
	settings, err := db.Resolve(env, nil)
	require.NoError(t, err)

	runner, err := db.NewRunner(ctx, settings, logging.NewNullLogger())
	require.NoError(t, err)
	defer runner.Close()

	// Hold the only connection busy, then watch a second statement fail its
	// 1s acquire instead of waiting forever.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = runner.RunStatement(ctx, "SELECT pg_sleep(3)", nil)
	}()

	time.Sleep(500 * time.Millisecond)

	start := time.Now()
	_, err = runner.RunStatement(ctx, "SELECT 1", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	<-done
}
