// Package table provides the in-memory tabular model shared by the schema
// builders and the warehouse merge layer.
//
// A Table is positional: Columns names the slots and every row in Rows is a
// []any of the same length. Cell values are nil (absent), string, int64,
// float64, bool or time.Time; builders never store other types.
package table

import "fmt"

// Table is a named-column, positional-row table.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given column layout. The slice is
// copied; callers may reuse it.
func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// ColumnIndex returns the position of name, or -1 when the column does not
// exist. Lookups are linear; tables here have at most a few dozen columns.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Append adds a row. The row must match the column count; a mismatch is a
// programming error in a builder, so Append panics rather than silently
// truncating.
func (t *Table) Append(row []any) {
	if len(row) != len(t.Columns) {
		panic(fmt.Sprintf("table: row has %d values, table %q has %d columns", len(row), firstColumn(t), len(t.Columns)))
	}
	t.Rows = append(t.Rows, row)
}

func firstColumn(t *Table) string {
	if len(t.Columns) > 0 {
		return t.Columns[0]
	}
	return "<no columns>"
}

// Get returns the cell at (row, column name), or nil when the column is
// missing. Callers index rows they know exist.
func (t *Table) Get(row int, column string) any {
	i := t.ColumnIndex(column)
	if i < 0 {
		return nil
	}
	return t.Rows[row][i]
}

// Set writes the cell at (row, column name). Missing columns are ignored.
func (t *Table) Set(row int, column string, v any) {
	i := t.ColumnIndex(column)
	if i < 0 {
		return
	}
	t.Rows[row][i] = v
}

// AddColumn appends a new column filled with fill for every existing row.
// Adding a column that already exists is a no-op.
func (t *Table) AddColumn(name string, fill any) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
}

// DropColumn removes a column and its cells. Unknown names are a no-op.
func (t *Table) DropColumn(name string) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r][:i], t.Rows[r][i+1:]...)
	}
}

// Clone returns a deep copy of the column list and rows (cells are copied by
// value; values themselves are immutable scalars in this codebase).
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := New(t.Columns)
	out.Rows = make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}
