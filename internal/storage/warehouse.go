// Package storage defines the warehouse access layer: the backend-agnostic
// Warehouse interface, the backend registry, and the canonical star schema
// table specs shared by the merge layer and the DDL generators.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config selects and configures a warehouse backend.
//
// Kind must match a registered backend kind ("postgres", "sqlite"). DSN is
// passed through to the backend factory; its format is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Warehouse is the minimal persistence surface the merge layer needs. Each
// backend implements these semantics in its own idiomatic way (Postgres
// ON CONFLICT, SQLite OR IGNORE, etc).
type Warehouse interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// EnsureTables creates tables as needed (create-if-not-exists semantics).
	EnsureTables(ctx context.Context, tables []TableSpec) error

	// SelectKeyValues returns the complete business-key -> surrogate-key map
	// for a dimension table. Map keys are NormalizeKey(raw key value).
	SelectKeyValues(ctx context.Context, table, keyColumn, valueColumn string) (map[string]int64, error)

	// InsertRows bulk-inserts rows. Every row must align with columns.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// InsertRowsSkipConflicts bulk-inserts rows, silently skipping any row
	// that conflicts on conflictColumns. The destination table must carry a
	// matching uniqueness constraint.
	InsertRowsSkipConflicts(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) (int64, error)

	// SyncSequence advances the table's identity/sequence mechanism to
	// max(keyColumn)+1 so that subsequent inserts cannot collide with rows
	// inserted out-of-band.
	SyncSequence(ctx context.Context, table, keyColumn string) error

	// DeleteAll removes every row from table. Used only by the destructive
	// bulk-load path.
	DeleteAll(ctx context.Context, table string) error
}

type factory func(ctx context.Context, cfg Config) (Warehouse, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a warehouse backend under a kind. Call from an init()
// function in a backend package.
//
// Panics on empty kind, nil factory, or duplicate registration; ambiguous
// backend selection must fail fast at startup, not at open time.
func Register(kind string, f factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Open constructs a Warehouse using the registered backend factory for
// cfg.Kind.
func Open(ctx context.Context, cfg Config) (Warehouse, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	factoryMu.RLock()
	f := factories[cfg.Kind]
	factoryMu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
