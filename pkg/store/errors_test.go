package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		connection bool
	}{
		{name: "bad conn", err: driver.ErrBadConn, connection: true},
		{name: "invalid conn", err: mysql.ErrInvalidConn, connection: true},
		{name: "deadline", err: context.DeadlineExceeded, connection: true},
		{name: "unknown database", err: &mysql.MySQLError{Number: 1049}, connection: true},
		{name: "syntax", err: &mysql.MySQLError{Number: 1064}},
		{name: "plain", err: errors.New("boom")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("op", tc.err)
			if IsConnection(err) != tc.connection || IsQuery(err) == tc.connection {
				t.Fatalf("unexpected classification for %v: %v", tc.err, err)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause lost: %v", err)
			}
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	inner := classify("inner", &mysql.MySQLError{Number: 1045})
	outer := classify("outer", inner)
	if !IsConnection(outer) || IsQuery(outer) {
		t.Fatalf("expected single connection classification, got %v", outer)
	}
	if classify("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
