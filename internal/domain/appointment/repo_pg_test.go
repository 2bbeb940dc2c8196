package appointment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("scan appointment: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Error("wrapped 23505 should trigger the create retry")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation must not trigger a retry")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain errors must not trigger a retry")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}
