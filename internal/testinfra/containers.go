// Package testinfra starts throwaway PostgreSQL containers for integration
// tests. Build-tagged test packages use it; nothing in the production path
// imports it.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"
)

// PostgresContainer wraps a running container with its resolved connection
// string.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres runs a disposable PostgreSQL server and returns a plain
// (sslmode=disable) connection string for it. Callers terminate the
// container via the embedded testcontainers handle.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
