package dataset

import (
	"fmt"
	"sort"
	"time"

	"marketdw/internal/table"
)

// ColumnProfile summarizes one column of a loaded dataset.
type ColumnProfile struct {
	Name string

	// Type is the dominant non-nil cell type: "int", "float", "string",
	// "bool", "time", or "empty" when every cell is nil.
	Type string

	Nulls  int
	Filled int

	// Sample is the first non-nil value, rendered for display.
	Sample string
}

// DatasetProfile summarizes one dataset.
type DatasetProfile struct {
	Name    string
	Rows    int
	Columns []ColumnProfile
}

// Profile summarizes every dataset in the bundle, sorted by name. Inspection
// output for humans; nothing downstream consumes it.
func Profile(b Bundle) []DatasetProfile {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DatasetProfile, 0, len(names))
	for _, name := range names {
		t := b[name]
		dp := DatasetProfile{Name: name, Rows: t.Len()}
		for i, col := range t.Columns {
			dp.Columns = append(dp.Columns, profileColumn(t, i, col))
		}
		out = append(out, dp)
	}
	return out
}

func profileColumn(t *table.Table, idx int, name string) ColumnProfile {
	p := ColumnProfile{Name: name, Type: "empty"}
	counts := map[string]int{}
	for _, row := range t.Rows {
		v := row[idx]
		if v == nil {
			p.Nulls++
			continue
		}
		p.Filled++
		kind := cellKind(v)
		counts[kind]++
		if p.Sample == "" {
			p.Sample = fmt.Sprintf("%v", v)
		}
	}

	best := 0
	for kind, n := range counts {
		if n > best || (n == best && kind < p.Type) {
			best = n
			p.Type = kind
		}
	}
	return p
}

func cellKind(v any) string {
	switch v.(type) {
	case int64, int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case time.Time:
		return "time"
	default:
		return "string"
	}
}
