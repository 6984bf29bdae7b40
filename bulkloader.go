package sqlload

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BulkLoader stages very large record sets into a session-scoped temporary
// table and hands them to a named stored procedure for server-side
// processing. The staging protocol (TEMPORARY TABLE, CALL, SHOW WARNINGS) is
// MySQL's; other dialects are rejected with ErrDialectUnsupported.
//
// Bulk loads are never retried: re-invoking the procedure risks duplicate
// server-side effects, which is judged worse than a transient failure.
type BulkLoader struct {
	db      *sql.DB
	dialect Dialect
	metrics MetricsReporter
	logger  zerolog.Logger
}

// NewBulkLoader creates a bulk loader over db.
func NewBulkLoader(db *sql.DB, dialect Dialect, logger zerolog.Logger) *BulkLoader {
	return &BulkLoader{
		db:      db,
		dialect: dialect,
		metrics: NoopMetricsReporter{},
		logger:  logger.With().Str("component", "bulkloader").Logger(),
	}
}

// WithMetricsReporter sets the metrics reporter.
func (l *BulkLoader) WithMetricsReporter(m MetricsReporter) *BulkLoader {
	if m != nil {
		l.metrics = m
	}
	return l
}

// Load stages records into a fresh temporary table, verifies that procName
// exists, invokes it with the staging table's name, and checks the session
// diagnostics for procedure-raised errors. The staging table is dropped on
// every exit path. All steps run on one pinned connection, since temporary
// tables are scoped to the session.
func (l *BulkLoader) Load(ctx context.Context, procName string, records []*Record) error {
	if l.dialect != DialectMySQL {
		return fmt.Errorf("%w: bulk load requires MySQL, got %s", ErrDialectUnsupported, l.dialect)
	}
	if procName == "" {
		return ErrBlankProcedureName
	}
	if !IsSafeTableName(procName) {
		return fmt.Errorf("%w: %q", ErrUnsafeTableName, procName)
	}
	if len(records) == 0 {
		return ErrEmptyBatch
	}

	l.metrics.IncInflight()
	defer l.metrics.DecInflight()
	start := time.Now()

	err := l.load(ctx, procName, records)

	status := "success"
	if err != nil {
		status = "fail"
		columns := records[0].Fields()
		first, last := "", ""
		if len(columns) > 0 {
			first, last = columns[0], columns[len(columns)-1]
		}
		l.metrics.IncError(procName, "final:bulk_load")
		l.logger.Error().Err(err).
			Str("procedure", procName).
			Int("rows", len(records)).
			Int("columns", len(columns)).
			Str("first_column", first).
			Str("last_column", last).
			Msg("bulk load failed")
	}
	l.metrics.ObserveExecuteDuration(procName, len(records), time.Since(start), status)
	return err
}

func (l *BulkLoader) load(ctx context.Context, procName string, records []*Record) error {
	// Unique per call so concurrent loads never collide even within one pool.
	tempTable := "temp_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if err := l.createStagingTable(ctx, conn, tempTable, records[0]); err != nil {
		return err
	}
	// The temp table is session-scoped, but the pinned connection returns to
	// the pool after this call, so it is dropped explicitly on every path.
	defer func() {
		dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(dropCtx, "DROP TEMPORARY TABLE IF EXISTS "+QuoteIdentifier(l.dialect, tempTable)); err != nil {
			l.logger.Warn().Err(err).Str("table", tempTable).Msg("failed to drop staging table")
		}
	}()

	if err := l.stageRecords(ctx, conn, tempTable, records); err != nil {
		return err
	}

	if err := l.verifyProcedure(ctx, conn, procName); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CALL %s(?)", procName), tempTable); err != nil {
		return fmt.Errorf("call %s: %w", procName, err)
	}

	diags, err := l.sessionDiagnostics(ctx, conn)
	if err != nil {
		return fmt.Errorf("read diagnostics: %w", err)
	}
	if len(diags) > 0 {
		return &ProcedureDiagnosticError{Procedure: procName, Diagnostics: diags}
	}

	l.logger.Info().
		Str("procedure", procName).
		Str("staging_table", tempTable).
		Int("rows", len(records)).
		Msg("bulk load complete")
	return nil
}

// createStagingTable derives the staging schema from the first record's
// runtime value types and creates the temporary table.
func (l *BulkLoader) createStagingTable(ctx context.Context, conn *sql.Conn, table string, sample *Record) error {
	fields := sample.Fields()
	defs := make([]string, 0, len(fields))
	for _, name := range fields {
		value, _ := sample.Get(name)
		defs = append(defs, fmt.Sprintf("%s %s", QuoteIdentifier(l.dialect, name), stagingType(value)))
	}
	ddl := fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s)", QuoteIdentifier(l.dialect, table), strings.Join(defs, ", "))
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	return nil
}

// stagingType maps a runtime value to a storage type wide enough to hold any
// value of that shape.
func stagingType(value any) string {
	switch value.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return "BIGINT"
	case float32, float64, decimal.Decimal:
		return "DECIMAL(38,9)"
	case time.Time:
		return "DATETIME(6)"
	case bool:
		return "TINYINT"
	default:
		return "LONGTEXT"
	}
}

// stageRecords inserts the entire record set with one multi-row statement.
// Deliberately unchunked: callers bound record-set size upstream, and one
// round trip is the point of the staging path.
func (l *BulkLoader) stageRecords(ctx context.Context, conn *sql.Conn, table string, records []*Record) error {
	fields := records[0].Fields()
	if len(fields) == 0 {
		return ErrNoColumns
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteIdentifier(l.dialect, f)
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ") + ")"
	rows := make([]string, len(records))
	args := make([]any, 0, len(records)*len(fields))
	for i, rec := range records {
		rows[i] = row
		for _, f := range fields {
			v, _ := rec.Get(f)
			args = append(args, v)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		QuoteIdentifier(l.dialect, table), strings.Join(quoted, ", "), strings.Join(rows, ", "))
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("stage %d rows: %w", len(records), err)
	}
	return nil
}

// verifyProcedure fails fast with a descriptive error when the target
// procedure is absent, before any server-side work is triggered.
func (l *BulkLoader) verifyProcedure(ctx context.Context, conn *sql.Conn, procName string) error {
	const q = `SELECT COUNT(*) FROM information_schema.ROUTINES
		WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'PROCEDURE' AND ROUTINE_NAME = ?`
	var count int
	if err := conn.QueryRowContext(ctx, q, procName).Scan(&count); err != nil {
		return fmt.Errorf("verify procedure %s: %w", procName, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrProcedureNotFound, procName)
	}
	return nil
}

// sessionDiagnostics reads SHOW WARNINGS and returns only Error-level
// entries. A procedure can complete without raising while still leaving
// errors in the diagnostics area; those fail the load.
func (l *BulkLoader) sessionDiagnostics(ctx context.Context, conn *sql.Conn) ([]Diagnostic, error) {
	rows, err := conn.QueryContext(ctx, "SHOW WARNINGS")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Level, &d.Code, &d.Message); err != nil {
			return nil, err
		}
		if strings.EqualFold(d.Level, "Error") {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}

// RunBulkLoad is the boolean orchestrator surface over Load.
func (l *BulkLoader) RunBulkLoad(ctx context.Context, procName string, records []*Record) bool {
	return l.Load(ctx, procName, records) == nil
}
