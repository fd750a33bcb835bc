package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// cannotConnectNow is the SQLSTATE Postgres reports while it is starting up,
// shutting down, or in recovery.
const cannotConnectNow = "57P03"

// TransientError wraps an error that is safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retryable.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, a network timeout, or a dropped connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return IsNotReady(err)
}

// IsNotReady reports whether err means the store is not accepting
// connections yet: nothing listening on the port, or a server that is still
// starting. Authentication failures, unknown hosts and unknown databases are
// not in this class.
func IsNotReady(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == cannotConnectNow
	}

	msg := strings.ToLower(err.Error())
	notReadyPatterns := []string{
		"connection refused",
		"the database system is starting up",
		"the database system is not yet accepting connections",
	}
	for _, p := range notReadyPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
