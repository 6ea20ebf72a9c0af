package builder

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketdw/internal/storage"
	"marketdw/internal/table"
)

// Builder produces one run's dimension and fact tables. All builds share the
// same KeySpace, timestamp, and batch id; instantiate a fresh Builder per run.
type Builder struct {
	keys  *KeySpace
	log   zerolog.Logger
	now   time.Time
	batch string
}

func New(keys *KeySpace, log zerolog.Logger, now time.Time, batchID string) *Builder {
	return &Builder{keys: keys, log: log, now: now.UTC(), batch: batchID}
}

// Keys exposes the shared lookup state, mainly for the merge layer and tests.
func (b *Builder) Keys() *KeySpace { return b.keys }

// columnsFor returns the canonical column order for a warehouse table:
// surrogate key first, then the declared columns.
func columnsFor(tableName string) []string {
	spec, ok := storage.Spec(tableName)
	if !ok {
		panic(fmt.Sprintf("builder: unknown table %q", tableName))
	}
	cols := make([]string, 0, len(spec.Columns)+1)
	if spec.SurrogateKey != "" {
		cols = append(cols, spec.SurrogateKey)
	}
	for _, c := range spec.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

func emptyTable(tableName string) *table.Table {
	return table.New(columnsFor(tableName))
}

// appendRow appends the named cells in the table's column order; columns
// absent from the map become nil.
func appendRow(t *table.Table, cells map[string]any) {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = cells[c]
	}
	t.Append(row)
}
