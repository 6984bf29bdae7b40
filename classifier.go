package sqlload

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrorClassifier decides whether a database error is transient (worth
// retrying the whole transaction) and tags it with a short reason label used
// in logs and metrics.
type ErrorClassifier func(err error) (retryable bool, reason string)

// mysqlTransientCodes are MySQL server error numbers treated as transient:
// deadlocks, lock waits, connection exhaustion and lost connections.
var mysqlTransientCodes = map[uint16]string{
	1213: "deadlock",     // ER_LOCK_DEADLOCK
	1205: "lock_timeout", // ER_LOCK_WAIT_TIMEOUT
	1040: "too_many_connections",
	1203: "too_many_user_connections",
	2006: "server_gone",
	2013: "connection_lost",
}

// DefaultClassifier classifies errors from the MySQL and PostgreSQL drivers
// by error code, falling back to substring matching for wrapped or
// driver-agnostic errors. Context cancellation is never retryable.
func DefaultClassifier(err error) (bool, string) {
	if err == nil {
		return false, ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, "context"
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true, "bad_conn"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if reason, ok := mysqlTransientCodes[myErr.Number]; ok {
			return true, reason
		}
		return false, "mysql"
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true, "connection"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == "40001": // serialization_failure
			return true, "serialization"
		case code == "40P01": // deadlock_detected
			return true, "deadlock"
		case strings.HasPrefix(code, "53"): // insufficient_resources
			return true, "resources"
		case strings.HasPrefix(code, "08"): // connection_exception
			return true, "connection"
		}
		return false, "postgres"
	}

	// Wrapped or stringly errors from drivers without typed codes.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "deadlock"):
		return true, "deadlock"
	case strings.Contains(s, "lock wait timeout"):
		return true, "lock_timeout"
	case strings.Contains(s, "timeout"):
		return true, "timeout"
	case strings.Contains(s, "connection") &&
		(strings.Contains(s, "refused") || strings.Contains(s, "reset") || strings.Contains(s, "closed") || strings.Contains(s, "lost")):
		return true, "connection"
	case strings.Contains(s, "broken pipe") || strings.Contains(s, "eof"):
		return true, "io"
	default:
		return false, "non_retryable"
	}
}
