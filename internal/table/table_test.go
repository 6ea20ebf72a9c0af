package table

import "testing"

func TestColumnOps(t *testing.T) {
	tb := New([]string{"a", "b"})
	tb.Append([]any{int64(1), "x"})
	tb.Append([]any{int64(2), "y"})

	if got := tb.ColumnIndex("b"); got != 1 {
		t.Fatalf("ColumnIndex(b) = %d, want 1", got)
	}
	if tb.HasColumn("c") {
		t.Fatal("HasColumn(c) = true, want false")
	}

	tb.AddColumn("c", nil)
	if got := tb.Get(0, "c"); got != nil {
		t.Fatalf("new column fill = %v, want nil", got)
	}
	tb.Set(0, "c", "z")
	if got := tb.Get(0, "c"); got != "z" {
		t.Fatalf("Get after Set = %v, want z", got)
	}

	tb.DropColumn("a")
	if tb.HasColumn("a") {
		t.Fatal("column a survived DropColumn")
	}
	if got := tb.Get(1, "b"); got != "y" {
		t.Fatalf("Get(1, b) after drop = %v, want y", got)
	}
}

func TestAppendLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Append with wrong arity did not panic")
		}
	}()
	New([]string{"a", "b"}).Append([]any{1})
}

func TestCloneIsIndependent(t *testing.T) {
	tb := New([]string{"a"})
	tb.Append([]any{"orig"})

	cp := tb.Clone()
	cp.Set(0, "a", "changed")

	if got := tb.Get(0, "a"); got != "orig" {
		t.Fatalf("clone mutation leaked into source: %v", got)
	}
}

func TestNilTableAccessors(t *testing.T) {
	var tb *Table
	if !tb.Empty() {
		t.Fatal("nil table should be empty")
	}
	if tb.Len() != 0 {
		t.Fatal("nil table Len != 0")
	}
	if tb.ColumnIndex("a") != -1 {
		t.Fatal("nil table ColumnIndex != -1")
	}
}
