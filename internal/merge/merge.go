// Package merge reconciles one run's built star schema tables with the rows
// already persisted in the warehouse.
//
// Dimensions merge before any fact is written: business-key upserts can remap
// the run-local surrogate keys to the database's, and every fact column
// referencing that dimension is rewritten before its insert. A failure on one
// table is logged and recorded, never propagated to sibling tables.
package merge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"marketdw/internal/storage"
	"marketdw/internal/table"
)

// Merger persists built tables through a storage backend.
type Merger struct {
	wh  storage.Warehouse
	log zerolog.Logger
}

func New(wh storage.Warehouse, log zerolog.Logger) *Merger {
	return &Merger{wh: wh, log: log}
}

// SaveAll persists every built table per its schema merge strategy and
// returns the per-table outcome. The error is non-nil only when the schema
// itself could not be ensured; individual table failures land in the map.
// Fact tables are cloned before key rewriting, the input is not mutated.
func (m *Merger) SaveAll(ctx context.Context, tables map[string]*table.Table) (map[string]bool, error) {
	schema := storage.Schema()
	if err := m.wh.EnsureTables(ctx, schema); err != nil {
		return nil, fmt.Errorf("merge: ensure tables: %w", err)
	}

	facts := map[string]*table.Table{}
	for _, spec := range schema {
		if spec.Merge.Strategy == storage.MergeAppend {
			if t := tables[spec.Name]; t != nil {
				facts[spec.Name] = t.Clone()
			}
		}
	}

	saved := map[string]bool{}
	for _, spec := range schema {
		t := tables[spec.Name]
		if spec.Merge.Strategy == storage.MergeAppend {
			t = facts[spec.Name]
		}
		if t == nil {
			continue
		}

		var err error
		switch spec.Merge.Strategy {
		case storage.MergeUpsertDateKey:
			err = m.mergeDateKey(ctx, spec, t)
		case storage.MergeUpsertBusinessKey:
			var remap map[int64]int64
			remap, err = m.mergeBusinessKey(ctx, spec, t)
			if err == nil {
				rewriteForeignKeys(schema, facts, spec.Name, remap)
			}
		case storage.MergeAppend:
			err = m.appendFact(ctx, spec, t)
		default:
			err = fmt.Errorf("merge: unknown strategy %q", spec.Merge.Strategy)
		}

		if err != nil {
			m.log.Error().Err(err).Str("table", spec.Name).Msg("merge failed")
			saved[spec.Name] = false
			continue
		}
		saved[spec.Name] = true
	}
	return saved, nil
}

// ClearExisting deletes all warehouse rows, facts first so no fact ever
// points at a deleted dimension row. Destructive; the bulk-load path only.
func (m *Merger) ClearExisting(ctx context.Context) error {
	schema := storage.Schema()
	if err := m.wh.EnsureTables(ctx, schema); err != nil {
		return fmt.Errorf("merge: ensure tables: %w", err)
	}
	for i := len(schema) - 1; i >= 0; i-- {
		if err := m.wh.DeleteAll(ctx, schema[i].Name); err != nil {
			return fmt.Errorf("merge: clear %s: %w", schema[i].Name, err)
		}
		m.log.Info().Str("table", schema[i].Name).Msg("cleared existing rows")
	}
	return nil
}

// mergeDateKey inserts rows whose natural date key is not yet present. The
// calendar is identical run to run, so skips are the common case.
func (m *Merger) mergeDateKey(ctx context.Context, spec storage.TableSpec, t *table.Table) error {
	if t.Empty() {
		return nil
	}
	n, err := m.wh.InsertRowsSkipConflicts(ctx, spec.Name, t.Columns, t.Rows, []string{spec.Merge.DateKey})
	if err != nil {
		return err
	}
	m.log.Info().Str("table", spec.Name).Int64("inserted", n).Int("skipped", t.Len()-int(n)).Msg("merged by date key")
	return nil
}

// mergeBusinessKey upserts dimension rows and returns the run-local ->
// database surrogate key remap. Rows whose business key already exists are
// skipped; rows with no business key at all insert unconditionally and never
// remap.
func (m *Merger) mergeBusinessKey(ctx context.Context, spec storage.TableSpec, t *table.Table) (map[int64]int64, error) {
	remap := map[int64]int64{}
	if t.Empty() {
		return remap, nil
	}
	bkIdx := t.ColumnIndex(spec.Merge.BusinessKey)
	skIdx := t.ColumnIndex(spec.SurrogateKey)
	if bkIdx < 0 || skIdx < 0 {
		return nil, fmt.Errorf("merge: %s lacks key columns %s/%s", spec.Name, spec.Merge.BusinessKey, spec.SurrogateKey)
	}

	existing, err := m.wh.SelectKeyValues(ctx, spec.Name, spec.Merge.BusinessKey, spec.SurrogateKey)
	if err != nil {
		return nil, err
	}

	// insert without the surrogate column so the database assigns keys
	cols := make([]string, 0, len(t.Columns)-1)
	for _, c := range t.Columns {
		if c != spec.SurrogateKey {
			cols = append(cols, c)
		}
	}

	var toInsert [][]any
	seen := map[string]bool{}
	var skippedExisting, batchDupes int
	for _, row := range t.Rows {
		bk := storage.NormalizeKey(row[bkIdx])
		if bk != "" {
			if _, ok := existing[bk]; ok {
				skippedExisting++
				continue
			}
			if seen[bk] {
				batchDupes++
				continue
			}
			seen[bk] = true
		}
		ins := make([]any, 0, len(cols))
		for i, v := range row {
			if i != skIdx {
				ins = append(ins, v)
			}
		}
		toInsert = append(toInsert, ins)
	}

	var inserted int64
	if len(toInsert) > 0 {
		inserted, err = m.wh.InsertRowsSkipConflicts(ctx, spec.Name, cols, toInsert, []string{spec.Merge.BusinessKey})
		if err != nil {
			return nil, err
		}
	}

	after, err := m.wh.SelectKeyValues(ctx, spec.Name, spec.Merge.BusinessKey, spec.SurrogateKey)
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		bk := storage.NormalizeKey(row[bkIdx])
		if bk == "" {
			continue
		}
		runKey, ok := row[skIdx].(int64)
		if !ok {
			continue
		}
		if dbKey, found := after[bk]; found {
			remap[runKey] = dbKey
		}
	}

	m.log.Info().
		Str("table", spec.Name).
		Int64("inserted", inserted).
		Int("already_present", skippedExisting).
		Int("batch_duplicates", batchDupes).
		Int("remapped_keys", len(remap)).
		Msg("merged by business key")
	return remap, nil
}

// appendFact inserts fact rows as-is, minus the run-local surrogate key.
// The sequence sync is best effort; an identity column that is already in
// step makes it a no-op.
func (m *Merger) appendFact(ctx context.Context, spec storage.TableSpec, t *table.Table) error {
	if t.Empty() {
		return nil
	}
	t.DropColumn(spec.SurrogateKey)
	if err := m.wh.SyncSequence(ctx, spec.Name, spec.SurrogateKey); err != nil {
		m.log.Warn().Err(err).Str("table", spec.Name).Msg("sequence sync failed, continuing")
	}
	n, err := m.wh.InsertRows(ctx, spec.Name, t.Columns, t.Rows)
	if err != nil {
		return err
	}
	m.log.Info().Str("table", spec.Name).Int64("inserted", n).Msg("appended fact rows")
	return nil
}

// rewriteForeignKeys replaces run-local surrogate keys with their database
// counterparts in every fact column that references dim. Cells that miss the
// remap (NULL lookups) stay untouched.
func rewriteForeignKeys(schema []storage.TableSpec, facts map[string]*table.Table, dim string, remap map[int64]int64) {
	if len(remap) == 0 {
		return
	}
	for _, spec := range schema {
		if spec.Merge.Strategy != storage.MergeAppend {
			continue
		}
		ft := facts[spec.Name]
		if ft == nil {
			continue
		}
		for _, col := range spec.Columns {
			if col.References != dim {
				continue
			}
			idx := ft.ColumnIndex(col.Name)
			if idx < 0 {
				continue
			}
			for r := range ft.Rows {
				if k, ok := ft.Rows[r][idx].(int64); ok {
					if dbKey, found := remap[k]; found {
						ft.Rows[r][idx] = dbKey
					}
				}
			}
		}
	}
}
