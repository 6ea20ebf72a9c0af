// Package postgres implements the warehouse backend on pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"marketdw/internal/storage"
)

// Warehouse implements storage.Warehouse for Postgres.
//
// Conflict-tolerant inserts use ON CONFLICT (...) DO NOTHING; sequence resync
// uses setval(pg_get_serial_sequence(...)).
type Warehouse struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New connects a pgx pool for cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Warehouse, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Warehouse{pool: pool}, nil
}

func (w *Warehouse) Close() { w.pool.Close() }

// EnsureTables creates the star schema tables if they do not exist.
// Idempotent; safe to run at every startup.
func (w *Warehouse) EnsureTables(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if _, err := w.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (w *Warehouse) SelectKeyValues(ctx context.Context, table, keyColumn, valueColumn string) (map[string]int64, error) {
	if table == "" || keyColumn == "" || valueColumn == "" {
		return nil, fmt.Errorf("SelectKeyValues: table, keyColumn, valueColumn are required")
	}

	q := fmt.Sprintf(
		`SELECT %s, %s FROM %s`,
		pgIdent(keyColumn), pgIdent(valueColumn), table,
	)

	rows, err := w.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("SelectKeyValues: query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var k any
		var id int64
		if err := rows.Scan(&k, &id); err != nil {
			return nil, fmt.Errorf("SelectKeyValues: scan %s: %w", table, err)
		}
		out[storage.NormalizeKey(k)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SelectKeyValues: rows %s: %w", table, err)
	}
	return out, nil
}

func (w *Warehouse) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return w.insert(ctx, table, columns, rows, nil)
}

func (w *Warehouse) InsertRowsSkipConflicts(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) (int64, error) {
	if len(conflictColumns) == 0 {
		return 0, fmt.Errorf("InsertRowsSkipConflicts: conflict columns are required")
	}
	return w.insert(ctx, table, columns, rows, conflictColumns)
}

// insert chunks rows to stay well below Postgres's parameter limit (65535).
func (w *Warehouse) insert(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert %s: no columns", table)
	}

	chunk := 60000 / len(columns)
	if chunk < 1 {
		chunk = 1
	}

	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}

		sql, args := buildInsertSQL(table, columns, rows[start:end], conflictColumns)
		cmd, err := w.pool.Exec(ctx, sql, args...)
		if err != nil {
			return total, fmt.Errorf("insert %s: %w", table, err)
		}
		total += cmd.RowsAffected()
	}
	return total, nil
}

// SyncSequence advances the serial sequence behind keyColumn to max(keyColumn)
// so the next insert allocates max+1. A no-op on an empty table.
func (w *Warehouse) SyncSequence(ctx context.Context, table, keyColumn string) error {
	q := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1), COALESCE(MAX(%s), 0) > 0) FROM %s`,
		table, keyColumn, pgIdent(keyColumn), pgIdent(keyColumn), table,
	)
	if _, err := w.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("sync sequence %s.%s: %w", table, keyColumn, err)
	}
	return nil
}

func (w *Warehouse) DeleteAll(ctx context.Context, table string) error {
	if _, err := w.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// buildInsertSQL constructs a single INSERT statement and its args.
//
// It is pure and deterministic so placeholder numbering and ON CONFLICT
// behavior can be unit tested without a database.
func buildInsertSQL(table string, columns []string, rows [][]any, conflictColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	if len(conflictColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		for i, c := range conflictColumns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pgIdent(c))
		}
		b.WriteString(") DO NOTHING")
	}

	b.WriteString(";")
	return b.String(), args
}

// buildCreateTableSQL renders CREATE TABLE IF NOT EXISTS DDL for a spec.
//
// The surrogate key becomes a BIGSERIAL primary key. Tables merged by
// business key or date key get a UNIQUE constraint on that column so the
// conflict-tolerant insert has a conflict target.
func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	parts := make([]string, 0, len(t.Columns)+2)

	if t.SurrogateKey != "" {
		parts = append(parts, fmt.Sprintf("%s BIGSERIAL PRIMARY KEY", pgIdent(t.SurrogateKey)))
	}

	for _, c := range t.Columns {
		def := pgIdent(c.Name) + " " + strings.ToUpper(c.Type)
		if c.Name == t.Merge.DateKey && t.SurrogateKey == "" {
			def += " PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		parts = append(parts, def)
	}

	if t.Merge.Strategy == storage.MergeUpsertBusinessKey && t.Merge.BusinessKey != "" {
		parts = append(parts, fmt.Sprintf("UNIQUE (%s)", pgIdent(t.Merge.BusinessKey)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  ")), nil
}

// pgIdent quotes an identifier for Postgres.
func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
