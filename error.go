package sqlload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlankTableName is returned when a builder is called without a table name.
	ErrBlankTableName = errors.New("table name cannot be blank")

	// ErrNilRecord is returned when a builder needs a record and none was given.
	ErrNilRecord = errors.New("record cannot be nil")

	// ErrNoColumns is returned when, after exclusion filtering, a statement
	// would have no columns left.
	ErrNoColumns = errors.New("no columns remain after filtering")

	// ErrUnsafeTableName is returned when a table name fails the
	// IsSafeTableName gate.
	ErrUnsafeTableName = errors.New("unsafe table name")

	// ErrBlankProcedureName is returned when a bulk load is requested with an
	// empty procedure name.
	ErrBlankProcedureName = errors.New("procedure name cannot be blank")

	// ErrUnscopedStatement is returned when an UPDATE or DELETE would apply
	// to the whole table and the caller did not opt in with Unscoped().
	ErrUnscopedStatement = errors.New("statement has no WHERE clause; pass Unscoped() to allow a full-table statement")

	// ErrEmptyBatch is returned when an executor receives zero statements or
	// a bulk load receives zero records.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrProcedureNotFound is returned when a bulk-load target procedure does
	// not exist in the target schema.
	ErrProcedureNotFound = errors.New("stored procedure not found")

	// ErrDialectUnsupported is returned when an operation is not available
	// for the configured dialect.
	ErrDialectUnsupported = errors.New("operation not supported for this dialect")
)

// ProcedureDiagnosticError reports that a bulk-load procedure completed
// without raising an error but left error entries in the session diagnostics
// area (SHOW WARNINGS). The whole load is treated as failed.
type ProcedureDiagnosticError struct {
	Procedure   string
	Diagnostics []Diagnostic
}

// Diagnostic is one row of the session diagnostics area.
type Diagnostic struct {
	Level   string
	Code    int
	Message string
}

func (e *ProcedureDiagnosticError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "procedure %s reported %d diagnostic(s)", e.Procedure, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "; [%s %d] %s", d.Level, d.Code, d.Message)
	}
	return b.String()
}
