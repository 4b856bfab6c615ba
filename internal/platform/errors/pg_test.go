package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"40001", ErrorCodeDB},
		{"40P01", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
		{"42P01", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v,%v want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("non-pg error should not map")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %d", 1) != nil {
		t.Fatalf("nil should pass through")
	}
	err := FromPostgres(pgErr("23505"), "insert fingerprint")
	if !IsCode(err, ErrorCodeDuplicateKey) || !IsDuplicateKey(err) {
		t.Fatalf("duplicate key not detected: %v", err)
	}
	if !IsUndefinedTable(FromPostgresf(pgErr("42P01"), "select %s", "tickets")) {
		t.Fatalf("undefined table not detected")
	}
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		if !IsRetryable(fmt.Errorf("tx: %w", pgErr(code))) {
			t.Fatalf("%s should be retryable", code)
		}
	}
	if IsRetryable(pgErr("23505")) {
		t.Fatalf("unique violation should not be retryable")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Fatalf("deadline should not be retryable")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should be retryable")
	}
	if !Retryable(pgErr("40P01")) {
		t.Fatalf("Retryable should delegate to IsRetryable")
	}
}

func TestMarkRetryable(t *testing.T) {
	if MarkRetryable(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	base := InvalidTransitionf("sub ticket closed")
	err := fmt.Errorf("attach: %w", MarkRetryable(base))
	if !IsRetryable(err) {
		t.Fatalf("marked error should be retryable")
	}
	if !IsCode(err, ErrorCodeInvalidTransition) || !stderrs.Is(err, base) {
		t.Fatalf("mark lost the code: %v", err)
	}
	if err.Error() != "attach: sub ticket closed" {
		t.Fatalf("message = %q", err.Error())
	}
	if IsRetryable(base) {
		t.Fatalf("unmarked transition error should not be retryable")
	}
}
