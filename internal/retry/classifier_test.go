package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifier_TransientPgErrorCodes(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	transientCodes := []string{
		"08000", // connection_exception
		"08001", // sqlclient_unable_to_establish_sqlconnection
		"08003", // connection_does_not_exist
		"08006", // connection_failure
		"57P01", // admin_shutdown
		"57P02", // crash_shutdown
		"57P03", // cannot_connect_now
	}

	for _, code := range transientCodes {
		t.Run(code, func(t *testing.T) {
			err := &pgconn.PgError{Code: code, Message: "server error"}
			if !classifier.IsTransient(err) {
				t.Errorf("Expected code %s to be transient", code)
			}
		})
	}
}

func TestClassifier_FatalPgErrorCodes(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	fatalCodes := []struct {
		code string
		desc string
	}{
		{"42601", "syntax error"},
		{"42P01", "undefined table"},
		{"23505", "unique violation"},
		{"23503", "foreign key violation"},
		{"28P01", "invalid password"},
		{"3D000", "invalid catalog name"},
		{"22P02", "invalid text representation"},
	}

	for _, tc := range fatalCodes {
		t.Run(tc.desc, func(t *testing.T) {
			err := &pgconn.PgError{Code: tc.code, Message: tc.desc}
			if classifier.IsTransient(err) {
				t.Errorf("Expected code %s (%s) to be fatal", tc.code, tc.desc)
			}
		})
	}
}

func TestClassifier_TransientMessagePatterns(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	messages := []string{
		"server closed the connection unexpectedly",
		"FATAL: Connection Failed",
		"could not connect to server: No route to host",
		"connection timeout expired",
		"read tcp: timeout expired",
		"read tcp 10.0.0.1:5432: connection reset by peer",
		"FATAL: terminating connection due to administrator command",
		"connection to server at \"db.example.com\" (10.0.0.1), port 5432 failed",
	}

	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			if !classifier.IsTransient(errors.New(msg)) {
				t.Errorf("Expected message %q to be transient", msg)
			}
		})
	}
}

func TestClassifier_MatchingIsCaseInsensitive(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	err := errors.New("SERVER CLOSED THE CONNECTION UNEXPECTEDLY")
	if !classifier.IsTransient(err) {
		t.Error("Expected upper-case message to match")
	}
}

func TestClassifier_NonTransientMessages(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	messages := []string{
		"division by zero",
		"relation \"users\" does not exist",
		"connection to server established", // "failed" absent
		"permission denied for table orders",
	}

	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			if classifier.IsTransient(errors.New(msg)) {
				t.Errorf("Expected message %q to be fatal", msg)
			}
		})
	}
}

func TestClassifier_CombinedPatternNeedsBothHalves(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	if classifier.IsTransient(errors.New("connection to server at 10.0.0.1")) {
		t.Error("\"connection to server\" alone must not match")
	}
	if !classifier.IsTransient(errors.New("connection to server lost: startup failed")) {
		t.Error("combined pattern with both halves must match")
	}
}

func TestClassifier_NetworkErrors(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	if !classifier.IsTransient(refused) {
		t.Error("Expected ECONNREFUSED to be transient")
	}

	reset := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	if !classifier.IsTransient(reset) {
		t.Error("Expected ECONNRESET to be transient")
	}
}

func TestClassifier_WrappedPgError(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	inner := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	wrapped := fmt.Errorf("exec: %w", inner)

	if !classifier.IsTransient(wrapped) {
		t.Error("Expected wrapped transient PgError to be transient")
	}
}

func TestClassifier_NilError(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	if classifier.IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}
