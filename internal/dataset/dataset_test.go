package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"marketdw/internal/table"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Fees & Taxes":               "fees_taxes",
		"Order ID":                   "order_id",
		"Gift Card Applied?":         "gift_card_applied",
		"VAT Paid by Buyer":          "vat_paid_by_buyer",
		"Số tài khoản (Account No.)": "số_tài_khoản_account_no",
		"  Title  ":                  "title",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"--", nil},
		{"N/A", nil},
		{"42", int64(42)},
		{"3.50", 3.50},
		{"1,234.56", 1234.56},
		{"-₫5000", float64(-5000)},
		{"(12.30)", -12.30},
		{"01234", "01234"},
		{"hello world", "hello world"},
		{"0", int64(0)},
	}
	for _, c := range cases {
		if got := coerce(c.in); got != c.want {
			t.Errorf("coerce(%q) = %v (%T), want %v", c.in, got, got, c.want)
		}
	}
}

func TestLoadPeriodDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("SoldOrders2025.csv", "Order ID,Sale Date,Order Total\n101,01/15/25,25.50\n102,01/16/25,--\n")
	write("statement_2025_1.csv", "Date,Type,Title,Info,Currency,Amount\n2025-01-15,Sale,sold item,Order #101,USD,\"1,000\"\n")
	write("notes.txt", "ignore me")

	b, err := Load(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	orders, ok := b["sold_orders"]
	if !ok {
		t.Fatal("sold_orders not loaded")
	}
	if orders.Len() != 2 {
		t.Fatalf("sold_orders rows = %d", orders.Len())
	}
	if got := orders.Get(0, "order_id"); got != int64(101) {
		t.Errorf("order_id = %v (%T)", got, got)
	}
	if got := orders.Get(1, "order_total"); got != nil {
		t.Errorf("missing marker should be nil, got %v", got)
	}

	st, ok := b["statement"]
	if !ok {
		t.Fatal("statement not loaded")
	}
	if got := st.Get(0, "amount"); got != float64(1000) {
		t.Errorf("amount = %v (%T)", got, got)
	}
	if got := st.Get(0, "extracted_id"); got != "101" {
		t.Errorf("extracted_id = %v", got)
	}
	if got := st.Get(0, "id_type"); got != "order_id" {
		t.Errorf("id_type = %v", got)
	}
	if got := st.Get(0, "revenue_type"); got != "Sale" {
		t.Errorf("revenue_type = %v", got)
	}
}

func TestLoadMissingDatasetIsNotError(t *testing.T) {
	b, err := Load(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Fatalf("empty dir should load nothing, got %d datasets", len(b))
	}
}

func TestDeriveOrderItemVariations(t *testing.T) {
	tbl := table.New([]string{"order_id", "variations"})
	tbl.Append([]any{int64(1), "Size: M, Color: Red"})
	tbl.Append([]any{int64(2), nil})
	derive("sold_order_items", tbl)

	if got := tbl.Get(0, "size"); got != "M" {
		t.Errorf("size = %v", got)
	}
	if got := tbl.Get(0, "color"); got != "Red" {
		t.Errorf("color = %v", got)
	}
	if got := tbl.Get(1, "size"); got != nil {
		t.Errorf("nil variations should leave nil, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	good := Bundle{
		"deposits": table.New([]string{"date", "amount", "currency"}),
	}
	if p := Validate(good); len(p) != 0 {
		t.Errorf("valid bundle reported: %v", p)
	}

	bad := Bundle{
		"deposits":          table.New([]string{"date"}),
		"bank_transactions": table.New([]string{"ref", "credit"}),
	}
	p := Validate(bad)
	if len(p) != 3 {
		t.Errorf("want 3 problems, got %d: %v", len(p), p)
	}
}

func TestLoadStripsLeadingByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeffDate,Amount,Currency,Status\n2025-01-15,100,USD,Paid\n"
	if err := os.WriteFile(filepath.Join(dir, "Deposits2025.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	dep, ok := b["deposits"]
	if !ok {
		t.Fatal("deposits not loaded")
	}
	if !dep.HasColumn("date") {
		t.Fatalf("first header kept its BOM: %v", dep.Columns)
	}
	if got := dep.Get(0, "amount"); got != float64(100) {
		t.Errorf("amount = %v (%T)", got, got)
	}
}
