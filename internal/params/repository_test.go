package params

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// The target value travels as float64 end to end: the API accepts text,
// the service parses it, and the repositories bind and scan the float
// directly. The column therefore has to be NUMERIC; a TEXT column would
// reject the INSERT bind and refuse to scan into *float64.
func TestParameterValueColumnIsNumeric(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/0001_init.sql")
	if err != nil {
		t.Skipf("migration file not found: %v", err)
	}

	table := regexp.MustCompile(`(?s)CREATE TABLE comp\.parameter_values \((.+?)\);`).FindSubmatch(ddl)
	if table == nil {
		t.Fatal("parameter_values table not found in the migration")
	}

	if !regexp.MustCompile(`(?m)^\s*value\s+NUMERIC\s+NOT NULL`).Match(table[1]) {
		t.Error("parameter_values.value must be NUMERIC NOT NULL to match the float64 binding")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "parameter_values_one_open_version"}
	if !isUniqueViolation(unique) {
		t.Error("SQLSTATE 23505 must be detected")
	}
	if !isUniqueViolation(fmt.Errorf("failed to insert parameter version: %w", unique)) {
		t.Error("wrapped unique violations must be detected")
	}

	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("other SQLSTATEs must not match")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Error("plain errors must not match")
	}
	if isUniqueViolation(nil) {
		t.Error("nil must not match")
	}
}
