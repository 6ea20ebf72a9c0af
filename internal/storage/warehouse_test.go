package storage

import (
	"context"
	"testing"
)

type stubWarehouse struct{ Warehouse }

func TestRegisterAndOpen(t *testing.T) {
	factory := func(ctx context.Context, cfg Config) (Warehouse, error) {
		return &stubWarehouse{}, nil
	}
	Register("stub", factory)

	if _, err := Open(context.Background(), Config{Kind: "stub"}); err != nil {
		t.Fatalf("Open(stub): %v", err)
	}
	if _, err := Open(context.Background(), Config{Kind: "missing"}); err == nil {
		t.Fatal("Open of unregistered kind should fail")
	}
}

func TestRegisterPanics(t *testing.T) {
	mustPanic := func(name string, fn func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
	mustPanic("empty kind", func() { Register("", func(context.Context, Config) (Warehouse, error) { return nil, nil }) })
	mustPanic("nil factory", func() { Register("x", nil) })
	mustPanic("duplicate", func() {
		Register("dup", func(context.Context, Config) (Warehouse, error) { return nil, nil })
		Register("dup", func(context.Context, Config) (Warehouse, error) { return nil, nil })
	})
}
