package postgres

import (
	"strings"
	"testing"

	"marketdw/internal/storage"
)

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	sql, args := buildInsertSQL(
		"dim_payment",
		[]string{"payment_method", "payment_type"},
		[][]any{
			{"online_cc", "Online"},
			{"paypal", "Online"},
		},
		nil,
	)

	want := `INSERT INTO dim_payment ("payment_method", "payment_type") VALUES ($1, $2), ($3, $4);`
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("args len = %d, want 4", len(args))
	}
	if args[2] != "paypal" {
		t.Fatalf("args[2] = %v, want paypal", args[2])
	}
}

func TestBuildInsertSQLConflictClause(t *testing.T) {
	t.Parallel()

	sql, _ := buildInsertSQL(
		"dim_customer",
		[]string{"buyer_user_name"},
		[][]any{{"alice"}},
		[]string{"buyer_user_name"},
	)

	if !strings.Contains(sql, `ON CONFLICT ("buyer_user_name") DO NOTHING`) {
		t.Fatalf("sql missing conflict clause: %q", sql)
	}
}

func TestBuildCreateTableSQL_SurrogateKey(t *testing.T) {
	t.Parallel()

	spec, ok := storage.Spec("dim_payment")
	if !ok {
		t.Fatal("dim_payment missing from schema")
	}

	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL: %v", err)
	}
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS dim_payment") {
		t.Fatalf("ddl missing CREATE TABLE: %q", ddl)
	}
	if !strings.Contains(ddl, `"payment_key" BIGSERIAL PRIMARY KEY`) {
		t.Fatalf("ddl missing surrogate key: %q", ddl)
	}
	if !strings.Contains(ddl, `UNIQUE ("payment_method")`) {
		t.Fatalf("ddl missing business-key constraint: %q", ddl)
	}
	if !strings.Contains(ddl, `"payment_method" TEXT NOT NULL`) {
		t.Fatalf("ddl missing business-key column: %q", ddl)
	}
}

func TestBuildCreateTableSQL_NaturalDateKey(t *testing.T) {
	t.Parallel()

	spec, ok := storage.Spec("dim_time")
	if !ok {
		t.Fatal("dim_time missing from schema")
	}

	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL: %v", err)
	}
	if !strings.Contains(ddl, `"time_key" BIGINT PRIMARY KEY`) {
		t.Fatalf("ddl should make the date key the primary key: %q", ddl)
	}
	if strings.Contains(ddl, "BIGSERIAL") {
		t.Fatalf("dim_time must not have a serial key: %q", ddl)
	}
}

func TestBuildCreateTableSQL_EmptyName(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateTableSQL(storage.TableSpec{}); err == nil {
		t.Fatal("expected error for empty table name")
	}
}
