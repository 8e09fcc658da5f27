package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation
	// should be retried.
	IsTransient(err error) bool
}

// PostgreSQL error codes for transient connection conditions
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 57 - Operator Intervention
	pgCodeAdminShutdown    = "57P01"
	pgCodeCrashShutdown    = "57P02"
	pgCodeCannotConnectNow = "57P03"
)

// transientMessagePatterns identifies connection failures by message text
// for errors that carry no SQLSTATE (network-level failures surfaced by the
// driver as plain errors). Matching is case-insensitive.
var transientMessagePatterns = []string{
	"server closed the connection unexpectedly",
	"connection failed",
	"could not connect to server",
	"connection timeout expired",
	"timeout expired",
	"connection reset by peer",
	"terminating connection",
}

// PostgreSQLErrorClassifier implements ErrorClassifier for PostgreSQL errors.
//
// SQLSTATE codes are consulted first when the driver exposes them; message
// substrings are only a fallback for errors without structured codes.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// A server-reported error carries a SQLSTATE; trust it over message text.
	// Statement-level failures (syntax errors, constraint violations, auth
	// failures) land here and are never retried.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.isTransientPgError(pgErr)
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.matchesTransientMessage(err)
}

// isTransientPgError checks PostgreSQL error codes for transient conditions.
func (c *PostgreSQLErrorClassifier) isTransientPgError(pgErr *pgconn.PgError) bool {
	code := pgErr.Code

	// Class 08 - Connection Exception
	if strings.HasPrefix(code, "08") {
		return true
	}

	// Class 57 - Operator Intervention: the server is going away or
	// refusing new sessions; a later attempt may land on a healthy backend.
	switch code {
	case pgCodeAdminShutdown,
		pgCodeCrashShutdown,
		pgCodeCannotConnectNow:
		return true
	}

	return false
}

// isNetworkError checks for network-level errors below the protocol layer.
func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}

		if opErr.Err != nil {
			if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
				errors.Is(opErr.Err, syscall.ECONNRESET) {
				return true
			}
		}
	}

	return false
}

// matchesTransientMessage applies the known-transient substring list.
func (c *PostgreSQLErrorClassifier) matchesTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())

	for _, pattern := range transientMessagePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	// libpq-style combined pattern: "connection to server at ... failed"
	if strings.Contains(msg, "connection to server") && strings.Contains(msg, "failed") {
		return true
	}

	return false
}
