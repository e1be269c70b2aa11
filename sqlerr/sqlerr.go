// Package sqlerr defines the five distinguishable error kinds the engine
// surfaces to callers, wrapped at call sites with github.com/juju/errors so
// a caller several frames up the statement-dispatch chain can still recover
// the original kind.
package sqlerr

import (
	"fmt"

	"github.com/juju/errors"
)

// Kind identifies which of the five failure categories an error belongs to.
type Kind int

const (
	// KindQuery covers syntactic/structural violations: missing ';',
	// missing separators, unknown clauses, bad column references.
	KindQuery Kind = iota
	// KindCommand covers a leading keyword not recognized as any
	// supported statement.
	KindCommand
	// KindSQLType covers declared-type mismatches on insert/update, or
	// an unknown type name in CREATE TABLE.
	KindSQLType
	// KindTable covers table-existence violations: create duplicate,
	// drop missing, view-name collision.
	KindTable
	// KindTransaction covers lock-grant failures, begin-inside-begin,
	// and commit/rollback without an active transaction.
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "QueryError"
	case KindCommand:
		return "CommandError"
	case KindSQLType:
		return "SQLTypeError"
	case KindTable:
		return "TableError"
	case KindTransaction:
		return "TransactionError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type for all five kinds; only Kind and the
// surface message differ between them.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func newError(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func NewQueryError(format string, args ...interface{}) error {
	return newError(KindQuery, format, args...)
}

func NewCommandError(format string, args ...interface{}) error {
	return newError(KindCommand, format, args...)
}

func NewSQLTypeError(format string, args ...interface{}) error {
	return newError(KindSQLType, format, args...)
}

func NewTableError(format string, args ...interface{}) error {
	return newError(KindTable, format, args...)
}

func NewTransactionError(format string, args ...interface{}) error {
	return newError(KindTransaction, format, args...)
}

// Annotate wraps err with additional context via github.com/juju/errors
// while preserving its Kind for later recovery with Is.
func Annotate(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Annotate(err, context)
}

// Trace records the current call site in err's juju/errors location stack
// without adding a message, for the frames between where an error is
// constructed and where it picks up its first Annotate context.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	return errors.Trace(err)
}

// Is reports whether err (or any error it wraps, per juju/errors.Cause)
// is a *Error of the given kind.
func Is(err error, k Kind) bool {
	cause := errors.Cause(err)
	se, ok := cause.(*Error)
	return ok && se.Kind == k
}
