package storage

import (
	"strings"
	"testing"
)

func TestSchemaCoversAllTables(t *testing.T) {
	want := []string{
		"dim_time",
		"dim_geography",
		"dim_product",
		"dim_customer",
		"dim_payment",
		"dim_order",
		"dim_bank_account",
		"dim_product_catalog",
		"fact_sales",
		"fact_financial_transactions",
		"fact_deposits",
		"fact_payments",
		"fact_bank_transactions",
	}
	specs := Schema()
	if len(specs) != len(want) {
		t.Fatalf("Schema() has %d tables, want %d", len(specs), len(want))
	}
	byName := map[string]TableSpec{}
	for _, s := range specs {
		byName[s.Name] = s
	}
	for _, name := range want {
		if _, ok := byName[name]; !ok {
			t.Errorf("Schema() missing %s", name)
		}
	}
}

func TestSchemaMergeStrategies(t *testing.T) {
	for _, s := range Schema() {
		switch {
		case strings.HasPrefix(s.Name, "fact_"):
			if s.Merge.Strategy != MergeAppend {
				t.Errorf("%s: fact tables must append, got %s", s.Name, s.Merge.Strategy)
			}
			if s.SurrogateKey == "" {
				t.Errorf("%s: fact tables need a surrogate key", s.Name)
			}
		case s.Name == "dim_time":
			if s.Merge.Strategy != MergeUpsertDateKey || s.Merge.DateKey != "time_key" {
				t.Errorf("dim_time merge = %+v", s.Merge)
			}
			if s.SurrogateKey != "" {
				t.Errorf("dim_time must use its date key as primary key")
			}
		default:
			if s.Merge.Strategy != MergeUpsertBusinessKey {
				t.Errorf("%s: dimensions upsert by business key, got %s", s.Name, s.Merge.Strategy)
			}
			if s.Merge.BusinessKey == "" {
				t.Errorf("%s: missing business key", s.Name)
			}
		}
	}
}

func TestSchemaColumnsResolvable(t *testing.T) {
	for _, s := range Schema() {
		cols := map[string]bool{}
		for _, c := range s.Columns {
			if cols[c.Name] {
				t.Errorf("%s: duplicate column %s", s.Name, c.Name)
			}
			cols[c.Name] = true
		}
		if s.Merge.BusinessKey != "" && !cols[s.Merge.BusinessKey] {
			t.Errorf("%s: business key %s not declared", s.Name, s.Merge.BusinessKey)
		}
		if s.Merge.DateKey != "" && !cols[s.Merge.DateKey] {
			t.Errorf("%s: date key %s not declared", s.Name, s.Merge.DateKey)
		}
		for _, c := range s.Columns {
			if c.References == "" {
				continue
			}
			ref, ok := Spec(c.References)
			if !ok {
				t.Errorf("%s.%s references unknown table %s", s.Name, c.Name, c.References)
				continue
			}
			if ref.SurrogateKey == "" && ref.Merge.DateKey == "" {
				t.Errorf("%s.%s references %s, which has no key column", s.Name, c.Name, c.References)
			}
		}
	}
}

func TestSpecLookup(t *testing.T) {
	if _, ok := Spec("fact_sales"); !ok {
		t.Error("fact_sales should resolve")
	}
	if _, ok := Spec("no_such_table"); ok {
		t.Error("unknown table should not resolve")
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int64(42), "42"},
		{42, "42"},
		{[]byte("raw"), "raw"},
		{8429529.0, "8429529"},
		{3.25, "3.25"},
	}
	for _, c := range cases {
		if got := NormalizeKey(c.in); got != c.want {
			t.Errorf("NormalizeKey(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
