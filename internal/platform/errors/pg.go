package errors

import (
	"context"
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the repositories surface to callers; everything else is DB
var pgCodes = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey, // unique_violation
	"23502": ErrorCodeValidation,   // not_null_violation
	"23514": ErrorCodeValidation,   // check_violation
	"22001": ErrorCodeValidation,   // string_data_right_truncation
	"22P02": ErrorCodeValidation,   // invalid_text_representation
	"23503": ErrorCodeFailedPrecondition,
	"55P03": ErrorCodeConflict,    // lock_not_available
	"40001": ErrorCodeConflict,    // serialization_failure
	"40P01": ErrorCodeConflict,    // deadlock_detected
	"57P03": ErrorCodeUnavailable, // cannot_connect_now
	"25006": ErrorCodeUnavailable, // read_only_sql_transaction
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if stderrs.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// DBErrorCode classifies a driver error
func DBErrorCode(err error) ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	if stderrs.Is(err, context.DeadlineExceeded) || stderrs.Is(err, context.Canceled) {
		return ErrorCodeUnavailable
	}
	if pe, ok := pgError(err); ok {
		if c, ok := pgCodes[pe.Code]; ok {
			return c
		}
	}
	return ErrorCodeDB
}

// FromPostgres wraps a driver error with msg and its classified code
// nil stays nil; an existing *Error passes through unchanged
// the constraint or column name, when postgres reports one, becomes the field
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	e := &Error{orig: err, msg: msg, code: DBErrorCode(err)}
	if pe, ok := pgError(err); ok {
		switch {
		case pe.ColumnName != "":
			e.field = pe.ColumnName
		case pe.ConstraintName != "":
			e.field = pe.ConstraintName
		}
	}
	return e
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}
