package resilience

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientPgCodes are SQLSTATE classes worth retrying: connection failures
// (08xxx) and insufficient-resources / load-shedding conditions (53xxx).
var transientPgCodes = []string{"08", "53", "57P03", "40001", "40P01"}

// transientSubstrings catch driver errors that only surface as text, e.g.
// SQLite's busy/locked signals.
var transientSubstrings = []string{
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"connection reset",
	"connection refused",
	"broken pipe",
	"rate limit",
	"too many requests",
}

// IsTransient reports whether an error is a temporary store condition worth
// retrying. Duplicate-key conflicts are NOT transient: they are resolved by
// the merge path, not by retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, code := range transientPgCodes {
			if strings.HasPrefix(pgErr.Code, code) {
				return true
			}
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, sub := range transientSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
