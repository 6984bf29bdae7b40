// Package sqlload turns in-memory records into parameterized SQL statements
// using per-table mapping configuration with a reflective fallback, and
// executes them either as retried multi-statement transactions or as staged
// bulk loads through a stored procedure.
package sqlload

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Loader ties the mapping catalog, statement builder, transaction executor
// and bulk loader together behind the two entry points the surrounding batch
// job needs. Library users composing the pieces directly do not need it.
type Loader struct {
	Catalog  *Catalog
	Builder  *Builder
	Executor *TxExecutor
	Bulk     *BulkLoader

	logger zerolog.Logger
}

// NewLoader wires a Loader from config over an already opened pool. The pool
// stays owned by the caller.
func NewLoader(db *sql.DB, cfg Config, logger zerolog.Logger) (*Loader, error) {
	dialect, err := DialectFromDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	catalog, err := NewCatalog(cfg.MappingDir, logger)
	if err != nil {
		return nil, err
	}

	return &Loader{
		Catalog:  catalog,
		Builder:  NewBuilder(dialect, catalog, logger),
		Executor: NewTxExecutor(db, dialect, logger).WithRetryConfig(cfg.Retry),
		Bulk:     NewBulkLoader(db, dialect, logger),
		logger:   logger,
	}, nil
}

// WithMetricsReporter installs one reporter on both execution paths.
func (l *Loader) WithMetricsReporter(m MetricsReporter) *Loader {
	l.Executor.WithMetricsReporter(m)
	l.Bulk.WithMetricsReporter(m)
	return l
}

// InsertAll builds one INSERT per record and runs them as a single
// transaction.
func (l *Loader) InsertAll(ctx context.Context, table string, records []*Record) error {
	statements := make([]*Statement, 0, len(records))
	for _, rec := range records {
		stmt, err := l.Builder.BuildInsert(table, rec)
		if err != nil {
			return err
		}
		statements = append(statements, stmt)
	}
	_, err := l.Executor.ExecuteTransaction(ctx, statements)
	return err
}

// RunTransaction executes pre-built statements, reporting success or failure.
func (l *Loader) RunTransaction(ctx context.Context, statements []*Statement) bool {
	return l.Executor.RunTransaction(ctx, statements)
}

// RunBulkLoad stages records and invokes the named procedure, reporting
// success or failure.
func (l *Loader) RunBulkLoad(ctx context.Context, procName string, records []*Record) bool {
	return l.Bulk.RunBulkLoad(ctx, procName, records)
}
