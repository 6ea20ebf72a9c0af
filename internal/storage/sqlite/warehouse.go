// Package sqlite implements the warehouse backend on modernc.org/sqlite for
// local runs and hermetic tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"marketdw/internal/storage"
)

// Warehouse implements storage.Warehouse for SQLite.
//
// Key design points vs Postgres:
//   - SQLite has no native TIMESTAMPTZ type; timestamps are stored as
//     RFC3339Nano TEXT for reliable round trips and easy debugging.
//   - Conflict-tolerant inserts use INSERT OR IGNORE, which relies on the
//     destination's UNIQUE/PK constraints rather than a named conflict target.
//   - Sequence resync rewrites the table's sqlite_sequence entry.
type Warehouse struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Warehouse, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Warehouse{db: db}, nil
}

func (w *Warehouse) Close() { _ = w.db.Close() }

func (w *Warehouse) EnsureTables(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if _, err := w.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (w *Warehouse) SelectKeyValues(ctx context.Context, table, keyColumn, valueColumn string) (map[string]int64, error) {
	q := fmt.Sprintf(`SELECT %s, %s FROM %s`, sqlIdent(keyColumn), sqlIdent(valueColumn), table)
	rows, err := w.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var k any
		var id sql.NullInt64
		if err := rows.Scan(&k, &id); err != nil {
			return nil, err
		}
		if !id.Valid {
			return nil, fmt.Errorf("sqlite: %s.%s is NULL; surrogate key not auto-generated", table, valueColumn)
		}
		out[storage.NormalizeKey(k)] = id.Int64
	}
	return out, rows.Err()
}

func (w *Warehouse) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return w.insert(ctx, table, columns, rows, false)
}

// InsertRowsSkipConflicts uses INSERT OR IGNORE. conflictColumns is accepted
// for interface parity; OR IGNORE relies on the table's UNIQUE/PK constraints.
func (w *Warehouse) InsertRowsSkipConflicts(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) (int64, error) {
	_ = conflictColumns
	return w.insert(ctx, table, columns, rows, true)
}

func (w *Warehouse) insert(ctx context.Context, table string, columns []string, rows [][]any, skipConflicts bool) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert %s: no columns", table)
	}

	// SQLITE_MAX_VARIABLE_NUMBER defaults to 32766 in modernc builds.
	chunk := 30000 / len(columns)
	if chunk < 1 {
		chunk = 1
	}

	insertPrefix := "INSERT INTO "
	if skipConflicts {
		insertPrefix = "INSERT OR IGNORE INTO "
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		part := rows[start:end]

		var b strings.Builder
		b.WriteString(insertPrefix)
		b.WriteString(table)
		b.WriteString(" (")
		b.WriteString(strings.Join(colList, ", "))
		b.WriteString(") VALUES ")

		args := make([]any, 0, len(part)*len(columns))
		for i, row := range part {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholders)
			for _, v := range row {
				args = append(args, normalizeArg(v))
			}
		}

		res, err := w.db.ExecContext(ctx, b.String(), args...)
		if err != nil {
			return total, fmt.Errorf("insert %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// SyncSequence rewrites the sqlite_sequence entry for table so the next
// AUTOINCREMENT value is max(keyColumn)+1.
func (w *Warehouse) SyncSequence(ctx context.Context, table, keyColumn string) error {
	var max sql.NullInt64
	q := fmt.Sprintf(`SELECT MAX(%s) FROM %s`, sqlIdent(keyColumn), table)
	if err := w.db.QueryRowContext(ctx, q).Scan(&max); err != nil {
		return fmt.Errorf("sync sequence %s.%s: %w", table, keyColumn, err)
	}
	if !max.Valid {
		return nil
	}

	// sqlite_sequence only has a row once the table has seen an insert.
	res, err := w.db.ExecContext(ctx, `UPDATE sqlite_sequence SET seq = ? WHERE name = ?`, max.Int64, table)
	if err != nil {
		return fmt.Errorf("sync sequence %s.%s: %w", table, keyColumn, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := w.db.ExecContext(ctx, `INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)`, table, max.Int64); err != nil {
			return fmt.Errorf("sync sequence %s.%s: %w", table, keyColumn, err)
		}
	}
	return nil
}

func (w *Warehouse) DeleteAll(ctx context.Context, table string) error {
	if _, err := w.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// buildCreateTableSQL renders CREATE TABLE IF NOT EXISTS DDL for a spec.
//
// "INTEGER PRIMARY KEY" is special in SQLite: it aliases the rowid and
// auto-generates values, which is the serial-equivalent the merge layer
// relies on.
func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	parts := make([]string, 0, len(t.Columns)+2)

	if t.SurrogateKey != "" {
		parts = append(parts, fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", sqlIdent(t.SurrogateKey)))
	}

	for _, c := range t.Columns {
		def := sqlIdent(c.Name) + " " + sqliteType(c.Type)
		if c.Name == t.Merge.DateKey && t.SurrogateKey == "" {
			def += " PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		parts = append(parts, def)
	}

	if t.Merge.Strategy == storage.MergeUpsertBusinessKey && t.Merge.BusinessKey != "" {
		parts = append(parts, fmt.Sprintf("UNIQUE (%s)", sqlIdent(t.Merge.BusinessKey)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  ")), nil
}

// sqliteType maps the schema's Postgres type vocabulary onto SQLite affinities.
func sqliteType(pgType string) string {
	switch strings.ToLower(strings.TrimSpace(pgType)) {
	case "bigint", "integer", "boolean":
		return "INTEGER"
	case "numeric":
		return "REAL"
	case "timestamptz", "date", "text":
		return "TEXT"
	default:
		return strings.ToUpper(pgType)
	}
}

// normalizeArg converts values the builders produce into what the SQLite
// driver stores losslessly. Timestamps become RFC3339Nano TEXT; bools become
// 0/1 INTEGER.
func normalizeArg(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
