package starschema

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketdw/internal/dataset"
	"marketdw/internal/table"
)

func newTable(columns []string, rows ...[]any) *table.Table {
	t := table.New(columns)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func testSchema() *StarSchema {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return NewAt(zerolog.Nop(), now, "batch-1")
}

func TestBuildCompleteEmptyBundle(t *testing.T) {
	out := testSchema().BuildComplete(dataset.Bundle{})

	if len(out) != len(BuildOrder) {
		t.Fatalf("built %d tables, want %d", len(out), len(BuildOrder))
	}
	for _, name := range BuildOrder {
		tbl, ok := out[name]
		if !ok {
			t.Errorf("missing table %s", name)
			continue
		}
		if len(tbl.Columns) == 0 {
			t.Errorf("%s has no columns", name)
		}
	}
	// the calendar generates regardless of input
	if out["dim_time"].Empty() {
		t.Error("dim_time should cover the default range")
	}
	if out["fact_sales"].Len() != 0 {
		t.Errorf("fact_sales rows = %d, want 0", out["fact_sales"].Len())
	}
}

func TestBuildCompleteRelationships(t *testing.T) {
	orders := newTable(
		[]string{"order_id", "full_name", "ship_country", "ship_state", "ship_city", "ship_zipcode", "payment_method"},
		[]any{int64(101), "Ann Smith", "United States", "CA", "Los Angeles", "90001", "online_cc"},
		[]any{int64(102), "Bob Jones", "Canada", "ON", "Toronto", "M5V", "online_cc"},
		[]any{int64(103), "Ann Smith", "United States", "CA", "Los Angeles", "90001", "online_cc"},
	)
	checkout := newTable(
		[]string{"order_id", "buyer_username", "buyer", "payment_type"},
		[]any{int64(101), "ann42", "Ann", "online_cc"},
		[]any{int64(102), "bobj", "Bob", "online_cc"},
		[]any{int64(103), "ann42", "Ann", "online_cc"},
	)
	items := newTable(
		[]string{"order_id", "listing_id", "item_name", "quantity", "price", "sale_date"},
		[]any{int64(101), int64(11), "Hat", int64(1), 10.0, "1/5/25"},
		[]any{int64(102), int64(12), "Mug", int64(2), 6.0, "1/6/25"},
		[]any{int64(103), int64(11), "Hat", int64(1), 10.0, "1/7/25"},
		[]any{int64(103), int64(12), "Mug", int64(1), 6.0, "1/7/25"},
	)
	listing := newTable(
		[]string{"title", "price"},
		[]any{"Hat", 10.0},
		[]any{"Mug", 6.0},
	)

	out := testSchema().BuildComplete(dataset.Bundle{
		"sold_orders":      orders,
		"direct_checkout":  checkout,
		"sold_order_items": items,
		"listing":          listing,
	})

	if got := out["dim_customer"].Len(); got != 2 {
		t.Errorf("dim_customer rows = %d, want 2 (repeat buyer collapses)", got)
	}
	if got := out["dim_order"].Len(); got != 3 {
		t.Errorf("dim_order rows = %d, want 3", got)
	}
	if got := out["dim_geography"].Len(); got != 2 {
		t.Errorf("dim_geography rows = %d, want 2", got)
	}

	sales := out["fact_sales"]
	if sales.Len() != 4 {
		t.Fatalf("fact_sales rows = %d, want one per item line", sales.Len())
	}
	for i := 0; i < sales.Len(); i++ {
		if sales.Get(i, "customer_key") == nil {
			t.Errorf("row %d: customer_key not resolved", i)
		}
		if sales.Get(i, "order_key") == nil {
			t.Errorf("row %d: order_key not resolved", i)
		}
		if sales.Get(i, "product_key") == nil {
			t.Errorf("row %d: product_key not resolved", i)
		}
		if got := sales.Get(i, "batch_id"); got != "batch-1" {
			t.Errorf("row %d: batch_id = %v", i, got)
		}
	}
	// orders 101 and 103 share a buyer, so their fact rows share a key
	if sales.Get(0, "customer_key") != sales.Get(2, "customer_key") {
		t.Error("repeat buyer should resolve to one customer_key")
	}
	if sales.Get(0, "customer_key") == sales.Get(1, "customer_key") {
		t.Error("distinct buyers should not share a customer_key")
	}
}

func TestBankAccountsDerivedFromTransactions(t *testing.T) {
	tx := newTable(
		[]string{"account_number", "account_name", "customer_address", "cif_number", "opening_date", "currency_code", "transaction_description", "transaction_date"},
		[]any{"0071000123", "Shop Account", "Hanoi", "C1", "2/1/2020", "VND", "memo one", "05/01/2025"},
		[]any{"0071000123", "Shop Account", "Hanoi", "C1", "2/1/2020", "VND", "memo two", "06/01/2025"},
		[]any{"0099000456", "Side Account", nil, nil, nil, nil, "memo three", "07/01/2025"},
	)

	out := testSchema().BuildComplete(dataset.Bundle{"bank_transactions": tx})

	accounts := out["dim_bank_account"]
	if accounts.Len() != 2 {
		t.Fatalf("dim_bank_account rows = %d, want 2", accounts.Len())
	}
	if got := accounts.Get(0, "account_number"); got != "0071000123" {
		t.Errorf("account_number = %v", got)
	}
	if got := accounts.Get(1, "currency_code"); got != "VND" {
		t.Errorf("default currency = %v", got)
	}

	fact := out["fact_bank_transactions"]
	if fact.Len() != 3 {
		t.Fatalf("fact_bank_transactions rows = %d, want 3", fact.Len())
	}
	for i := 0; i < fact.Len(); i++ {
		if fact.Get(i, "bank_account_key") == nil {
			t.Errorf("row %d: bank_account_key not resolved", i)
		}
	}
}

func TestDedicatedBankAccountDatasetWins(t *testing.T) {
	accounts := newTable(
		[]string{"account_number", "account_name"},
		[]any{"111", "Primary"},
	)
	tx := newTable(
		[]string{"account_number", "account_name", "transaction_description", "transaction_date"},
		[]any{"222", "Other", "memo", "05/01/2025"},
	)

	out := testSchema().BuildComplete(dataset.Bundle{
		"bank_account":      accounts,
		"bank_transactions": tx,
	})

	dim := out["dim_bank_account"]
	if dim.Len() != 1 {
		t.Fatalf("dim_bank_account rows = %d, want 1", dim.Len())
	}
	if got := dim.Get(0, "account_number"); got != "111" {
		t.Errorf("account_number = %v, want the dedicated dataset's", got)
	}
}
