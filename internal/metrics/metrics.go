// Package metrics defines the instrumentation surface the pipeline reports
// through. The core code depends only on Backend; concrete backends live in
// subpackages and buffer locally until Flush.
package metrics

// Labels tag a single observation, e.g. {"table": "fact_sales"}.
type Labels map[string]string

// Canonical metric names. Backends may rewrite them to their own naming
// convention but the label contract is fixed here.
const (
	// RowsBuilt counts rows produced by the schema builders, labeled by table.
	RowsBuilt = "warehouse_rows_built"

	// RowsPersisted counts rows written by the merge layer, labeled by table.
	RowsPersisted = "warehouse_rows_persisted"

	// KeyLookups counts fact foreign-key resolutions, labeled by fact table,
	// dimension and outcome ("matched" or "missed").
	KeyLookups = "warehouse_key_lookups"

	// TableFailures counts tables whose merge failed, labeled by table.
	TableFailures = "warehouse_table_failures"

	// RunDuration observes whole-run wall time in seconds, labeled by status.
	RunDuration = "warehouse_run_duration_seconds"
)

// Backend receives observations from the pipeline. Implementations must be
// safe for concurrent use; IncCounter and ObserveDuration are called from the
// hot path and should only buffer.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveDuration(name string, seconds float64, labels Labels)

	// Flush submits buffered observations. Called periodically by backends
	// with a flush loop and once more from Close.
	Flush() error

	// Close flushes and releases resources. Call once at shutdown.
	Close() error
}

// Nop discards every observation. The default when no metrics backend is
// configured.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveDuration(string, float64, Labels)  {}
func (Nop) Flush() error                             { return nil }
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}
