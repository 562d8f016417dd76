package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrConnection indicates the database could not be reached or refused the session.
	ErrConnection = errors.New("database connection error")
	// ErrQuery indicates a malformed statement or a constraint violation.
	ErrQuery = errors.New("database query error")
)

// MySQL server error numbers that mean the session itself failed.
var connectionErrorNumbers = map[uint16]struct{}{
	1040: {}, // too many connections
	1044: {}, // access denied for user to database
	1045: {}, // access denied for user
	1049: {}, // unknown database
	1129: {}, // host blocked
	1130: {}, // host not allowed
	1203: {}, // max user connections
}

// IsConnection reports whether err is a connection failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsQuery reports whether err is a query failure.
func IsQuery(err error) bool {
	return errors.Is(err, ErrQuery)
}

// classify wraps err with op and exactly one of ErrConnection or ErrQuery.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConnection) || errors.Is(err, ErrQuery) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isConnectionFailure(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConnection, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		_, ok := connectionErrorNumbers[myErr.Number]
		return ok
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
