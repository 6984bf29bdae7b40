package sqlload

import "time"

// MetricsReporter receives execution signals from the executor and bulk
// loader. Implementations must be safe for concurrent use. The monitoring
// package provides a Prometheus-backed implementation; NoopMetricsReporter is
// the default.
type MetricsReporter interface {
	// ObserveExecuteDuration records one finished operation for a table with
	// its statement/row count, wall time and "success"/"fail" status.
	ObserveExecuteDuration(table string, n int, d time.Duration, status string)

	// IncError counts one classified error. kind is "retry:<reason>" for a
	// swallowed transient error and "final:<reason>" for a surfaced failure.
	IncError(table string, kind string)

	// IncInflight / DecInflight track operations currently executing.
	IncInflight()
	DecInflight()
}

// NoopMetricsReporter discards all signals.
type NoopMetricsReporter struct{}

func (NoopMetricsReporter) ObserveExecuteDuration(string, int, time.Duration, string) {}
func (NoopMetricsReporter) IncError(string, string)                                   {}
func (NoopMetricsReporter) IncInflight()                                              {}
func (NoopMetricsReporter) DecInflight()                                              {}
