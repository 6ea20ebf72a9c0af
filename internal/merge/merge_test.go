package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"marketdw/internal/storage"
	"marketdw/internal/table"
)

// fakeWarehouse simulates the backend key assignment: skip-conflict inserts
// against a pre-seeded business-key map, monotonically assigned surrogates.
type fakeWarehouse struct {
	keys    map[string]map[string]int64 // table -> business key -> surrogate
	nextKey map[string]int64

	inserts   []insertCall
	deletes   []string
	synced    []string
	callOrder []string

	failInsertOn string
	failSelectOn string
}

type insertCall struct {
	table    string
	columns  []string
	rows     [][]any
	conflict []string
}

func newFake() *fakeWarehouse {
	return &fakeWarehouse{keys: map[string]map[string]int64{}, nextKey: map[string]int64{}}
}

func (f *fakeWarehouse) seed(tbl, businessKey string, surrogate int64) {
	if f.keys[tbl] == nil {
		f.keys[tbl] = map[string]int64{}
	}
	f.keys[tbl][businessKey] = surrogate
	if surrogate >= f.nextKey[tbl] {
		f.nextKey[tbl] = surrogate + 1
	}
}

func (f *fakeWarehouse) Close() {}

func (f *fakeWarehouse) EnsureTables(ctx context.Context, tables []storage.TableSpec) error {
	return nil
}

func (f *fakeWarehouse) SelectKeyValues(ctx context.Context, tbl, keyColumn, valueColumn string) (map[string]int64, error) {
	if tbl == f.failSelectOn {
		return nil, errors.New("select boom")
	}
	out := map[string]int64{}
	for k, v := range f.keys[tbl] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeWarehouse) InsertRows(ctx context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	if tbl == f.failInsertOn {
		return 0, errors.New("insert boom")
	}
	f.inserts = append(f.inserts, insertCall{table: tbl, columns: columns, rows: rows})
	f.callOrder = append(f.callOrder, tbl)
	return int64(len(rows)), nil
}

func (f *fakeWarehouse) InsertRowsSkipConflicts(ctx context.Context, tbl string, columns []string, rows [][]any, conflictColumns []string) (int64, error) {
	if tbl == f.failInsertOn {
		return 0, errors.New("insert boom")
	}
	f.inserts = append(f.inserts, insertCall{table: tbl, columns: columns, rows: rows, conflict: conflictColumns})
	f.callOrder = append(f.callOrder, tbl)

	idx := -1
	for i, c := range columns {
		if c == conflictColumns[0] {
			idx = i
		}
	}
	if f.keys[tbl] == nil {
		f.keys[tbl] = map[string]int64{}
	}
	if f.nextKey[tbl] == 0 {
		f.nextKey[tbl] = 1
	}
	var inserted int64
	for _, row := range rows {
		bk := storage.NormalizeKey(row[idx])
		if _, exists := f.keys[tbl][bk]; exists {
			continue
		}
		f.keys[tbl][bk] = f.nextKey[tbl]
		f.nextKey[tbl]++
		inserted++
	}
	return inserted, nil
}

func (f *fakeWarehouse) SyncSequence(ctx context.Context, tbl, keyColumn string) error {
	f.synced = append(f.synced, tbl)
	return nil
}

func (f *fakeWarehouse) DeleteAll(ctx context.Context, tbl string) error {
	f.deletes = append(f.deletes, tbl)
	return nil
}

func (f *fakeWarehouse) lastInsert(t *testing.T, tbl string) insertCall {
	t.Helper()
	for i := len(f.inserts) - 1; i >= 0; i-- {
		if f.inserts[i].table == tbl {
			return f.inserts[i]
		}
	}
	t.Fatalf("no insert recorded for %s", tbl)
	return insertCall{}
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func newTable(columns []string, rows ...[]any) *table.Table {
	t := table.New(columns)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestAppendDropsSurrogateAndKeepsInputIntact(t *testing.T) {
	fake := newFake()
	m := New(fake, zerolog.Nop())

	deposits := newTable(
		[]string{"deposit_key", "deposit_date_key", "deposit_amount", "data_source"},
		[]any{int64(1), int64(20250110), 120.5, "deposits"},
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{"fact_deposits": deposits})
	if err != nil {
		t.Fatal(err)
	}
	if !saved["fact_deposits"] {
		t.Fatal("fact_deposits not saved")
	}

	call := fake.lastInsert(t, "fact_deposits")
	if hasColumn(call.columns, "deposit_key") {
		t.Error("surrogate key column should be dropped before insert")
	}
	if len(call.rows) != 1 || len(call.rows[0]) != 3 {
		t.Errorf("insert rows = %v", call.rows)
	}

	found := false
	for _, tbl := range fake.synced {
		if tbl == "fact_deposits" {
			found = true
		}
	}
	if !found {
		t.Error("sequence not synced before append")
	}
	// the caller's table is untouched
	if !deposits.HasColumn("deposit_key") {
		t.Error("input table was mutated")
	}
}

func TestBusinessKeyUpsertRemapsFactForeignKeys(t *testing.T) {
	fake := newFake()
	fake.seed("dim_payment", "online_cc", 7)
	m := New(fake, zerolog.Nop())

	payments := newTable(
		[]string{"payment_key", "payment_method", "payment_type"},
		[]any{int64(1), "online_cc", "Online"},
		[]any{int64(2), "paypal", "Online"},
	)
	sales := newTable(
		[]string{"sales_key", "payment_key", "order_id"},
		[]any{int64(1), int64(1), "101"}, // run key 1 -> existing db key 7
		[]any{int64(2), int64(2), "102"}, // run key 2 -> newly assigned
		[]any{int64(3), nil, "103"},      // unresolved lookup stays NULL
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{
		"dim_payment": payments,
		"fact_sales":  sales,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !saved["dim_payment"] || !saved["fact_sales"] {
		t.Fatalf("saved = %v", saved)
	}

	dimCall := fake.lastInsert(t, "dim_payment")
	if len(dimCall.rows) != 1 {
		t.Fatalf("dim insert rows = %d, want only the new method", len(dimCall.rows))
	}
	if hasColumn(dimCall.columns, "payment_key") {
		t.Error("dim insert should not carry the run-local surrogate")
	}
	if len(dimCall.conflict) != 1 || dimCall.conflict[0] != "payment_method" {
		t.Errorf("conflict columns = %v", dimCall.conflict)
	}

	newKey := fake.keys["dim_payment"]["paypal"]
	factCall := fake.lastInsert(t, "fact_sales")
	fkIdx := -1
	for i, c := range factCall.columns {
		if c == "payment_key" {
			fkIdx = i
		}
	}
	if got := factCall.rows[0][fkIdx]; got != int64(7) {
		t.Errorf("existing method fact key = %v, want 7", got)
	}
	if got := factCall.rows[1][fkIdx]; got != newKey {
		t.Errorf("new method fact key = %v, want %d", got, newKey)
	}
	if got := factCall.rows[2][fkIdx]; got != nil {
		t.Errorf("null fact key = %v, want nil", got)
	}

	// every dimension write precedes the fact write
	for i, tbl := range fake.callOrder {
		if tbl == "fact_sales" {
			for _, later := range fake.callOrder[i+1:] {
				if later == "dim_payment" {
					t.Error("dimension merged after fact insert")
				}
			}
		}
	}
}

func TestBatchDuplicateBusinessKeysCollapse(t *testing.T) {
	fake := newFake()
	m := New(fake, zerolog.Nop())

	geo := newTable(
		[]string{"geography_key", "location_hash", "country_name", "postal_code"},
		[]any{int64(1), "abc123", "United States", "90001"},
		[]any{int64(2), "abc123", "United States", "90002"}, // same place, different zip
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{"dim_geography": geo})
	if err != nil {
		t.Fatal(err)
	}
	if !saved["dim_geography"] {
		t.Fatal("dim_geography not saved")
	}
	call := fake.lastInsert(t, "dim_geography")
	if len(call.rows) != 1 {
		t.Errorf("insert rows = %d, want first occurrence only", len(call.rows))
	}
}

func TestDateKeyMergeUsesNaturalKeyConflict(t *testing.T) {
	fake := newFake()
	fake.seed("dim_time", "20250101", 0)
	m := New(fake, zerolog.Nop())

	tm := newTable(
		[]string{"time_key", "full_date"},
		[]any{int64(20250101), "2025-01-01"},
		[]any{int64(20250102), "2025-01-02"},
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{"dim_time": tm})
	if err != nil {
		t.Fatal(err)
	}
	if !saved["dim_time"] {
		t.Fatal("dim_time not saved")
	}
	call := fake.lastInsert(t, "dim_time")
	if len(call.conflict) != 1 || call.conflict[0] != "time_key" {
		t.Errorf("conflict columns = %v", call.conflict)
	}
	if hasColumn(call.columns, "time_key") == false {
		t.Error("date-key table keeps its natural key column")
	}
}

func TestTableFailureDoesNotAbortSiblings(t *testing.T) {
	fake := newFake()
	fake.failInsertOn = "fact_deposits"
	m := New(fake, zerolog.Nop())

	deposits := newTable(
		[]string{"deposit_key", "deposit_amount"},
		[]any{int64(1), 10.0},
	)
	payments := newTable(
		[]string{"payment_key", "payment_method"},
		[]any{int64(1), "online_cc"},
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{
		"fact_deposits": deposits,
		"dim_payment":   payments,
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved["fact_deposits"] {
		t.Error("failed table recorded as saved")
	}
	if !saved["dim_payment"] {
		t.Error("sibling table should still save")
	}
}

func TestDimensionSelectFailureRecorded(t *testing.T) {
	fake := newFake()
	fake.failSelectOn = "dim_payment"
	m := New(fake, zerolog.Nop())

	payments := newTable(
		[]string{"payment_key", "payment_method"},
		[]any{int64(1), "online_cc"},
	)

	saved, err := m.SaveAll(context.Background(), map[string]*table.Table{"dim_payment": payments})
	if err != nil {
		t.Fatal(err)
	}
	if saved["dim_payment"] {
		t.Error("failed dimension recorded as saved")
	}
}

func TestClearExistingDeletesFactsBeforeDimensions(t *testing.T) {
	fake := newFake()
	m := New(fake, zerolog.Nop())

	if err := m.ClearExisting(context.Background()); err != nil {
		t.Fatal(err)
	}
	schema := storage.Schema()
	if len(fake.deletes) != len(schema) {
		t.Fatalf("deleted %d tables, want %d", len(fake.deletes), len(schema))
	}
	if fake.deletes[0] != schema[len(schema)-1].Name {
		t.Errorf("first delete = %s, want the last schema table", fake.deletes[0])
	}
	if fake.deletes[len(fake.deletes)-1] != "dim_time" {
		t.Errorf("last delete = %s, want dim_time", fake.deletes[len(fake.deletes)-1])
	}
}
