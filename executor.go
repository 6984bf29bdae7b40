package sqlload

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig controls whole-transaction retry on transient database errors.
// MaxAttempts is the total attempt count including the first run. Backoff
// starts at BackoffBase and doubles per retry up to MaxBackoff; the reference
// plan is 4 attempts with 1s, 2s, 4s delays.
type RetryConfig struct {
	Enabled     bool
	MaxAttempts int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	Classifier  ErrorClassifier
}

// DefaultRetryConfig is the reference retry plan: three retries with
// doubling delays of 1s, 2s and 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:     true,
		MaxAttempts: 4,
		BackoffBase: 1 * time.Second,
		MaxBackoff:  4 * time.Second,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 1 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 4 * time.Second
	}
	if c.Classifier == nil {
		c.Classifier = DefaultClassifier
	}
	return c
}

// BackoffFor returns the delay before retry number attempt (1-based).
func (c RetryConfig) BackoffFor(attempt int) time.Duration {
	d := c.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if d > c.MaxBackoff {
		return c.MaxBackoff
	}
	return d
}

// TxExecutor runs ordered statement batches inside one database transaction,
// retrying the whole transaction on transient failures. Each attempt uses a
// fresh connection from the pool; the supplied order is preserved across
// retries.
type TxExecutor struct {
	db      *sql.DB
	dialect Dialect
	retry   RetryConfig
	metrics MetricsReporter
	logger  zerolog.Logger
}

// NewTxExecutor creates an executor over db for the dialect with the default
// retry plan and no-op metrics.
func NewTxExecutor(db *sql.DB, dialect Dialect, logger zerolog.Logger) *TxExecutor {
	return &TxExecutor{
		db:      db,
		dialect: dialect,
		retry:   DefaultRetryConfig().withDefaults(),
		metrics: NoopMetricsReporter{},
		logger:  logger.With().Str("component", "executor").Logger(),
	}
}

// WithRetryConfig replaces the retry plan.
func (e *TxExecutor) WithRetryConfig(cfg RetryConfig) *TxExecutor {
	e.retry = cfg.withDefaults()
	return e
}

// WithMetricsReporter sets the metrics reporter.
func (e *TxExecutor) WithMetricsReporter(m MetricsReporter) *TxExecutor {
	if m != nil {
		e.metrics = m
	}
	return e
}

// ExecuteTransaction runs the statements in order inside one transaction.
// On a transient error the open transaction is rolled back and, while retry
// budget remains, the whole attempt restarts from a fresh connection after
// the backoff delay. Any other error rolls back and fails immediately.
// Returns the total affected-row count of the final successful attempt.
func (e *TxExecutor) ExecuteTransaction(ctx context.Context, statements []*Statement) (int64, error) {
	if len(statements) == 0 {
		return 0, ErrEmptyBatch
	}

	e.metrics.IncInflight()
	defer e.metrics.DecInflight()

	start := time.Now()
	table := statements[0].Table // label only; mixed batches report under the first table
	var affected int64
	var err error

	attempts := 1
	if e.retry.Enabled {
		attempts = e.retry.MaxAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		affected, err = e.runAttempt(ctx, statements)
		if err == nil {
			break
		}

		retryable, reason := e.retry.Classifier(err)
		if !retryable || attempt == attempts {
			e.metrics.IncError(table, "final:"+reason)
			e.logger.Error().Err(err).
				Int("attempt", attempt).
				Int("statements", len(statements)).
				Str("reason", reason).
				Msg("transaction failed")
			break
		}

		e.metrics.IncError(table, "retry:"+reason)
		delay := e.retry.BackoffFor(attempt)
		e.logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Str("reason", reason).
			Msg("transient failure, retrying transaction")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.metrics.IncError(table, "final:context")
			e.metrics.ObserveExecuteDuration(table, len(statements), time.Since(start), "fail")
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	status := "success"
	if err != nil {
		status = "fail"
	}
	e.metrics.ObserveExecuteDuration(table, len(statements), time.Since(start), status)
	if err != nil {
		return 0, err
	}
	e.logger.Debug().Int("statements", len(statements)).Int64("affected", affected).Msg("transaction committed")
	return affected, nil
}

// runAttempt executes all statements on a dedicated connection inside one
// transaction. The connection is always released, and an open transaction is
// always rolled back on the failure path.
func (e *TxExecutor) runAttempt(ctx context.Context, statements []*Statement) (int64, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var affected int64
	for _, stmt := range statements {
		query, args, err := stmt.Bind(e.dialect)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// RunTransaction is the boolean orchestrator surface over ExecuteTransaction:
// failure detail goes to the log, the caller gets success or failure.
func (e *TxExecutor) RunTransaction(ctx context.Context, statements []*Statement) bool {
	_, err := e.ExecuteTransaction(ctx, statements)
	return err == nil
}
