package engine

import "testing"

func TestRegistryStoreTake(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Current(); ok {
		t.Fatalf("new registry should be empty")
	}

	h := newFakeHandle(42)
	reg.Store(h)
	if !reg.Holds(h) {
		t.Fatalf("expected registry to hold stored handle")
	}

	got, ok := reg.Take()
	if !ok || got != h {
		t.Fatalf("expected Take to return stored handle, got %v (ok=%v)", got, ok)
	}
	if _, ok := reg.Take(); ok {
		t.Fatalf("second Take should find the slot empty")
	}
	if reg.Holds(h) {
		t.Fatalf("registry should not hold a taken handle")
	}
}

func TestRegistryStoreOverwrites(t *testing.T) {
	reg := NewRegistry()
	first, second := newFakeHandle(1), newFakeHandle(2)
	reg.Store(first)
	reg.Store(second)

	got, ok := reg.Take()
	if !ok || got != second {
		t.Fatalf("expected most recent handle, got %v", got)
	}
}

func TestNilRegistryIsEmpty(t *testing.T) {
	var reg *Registry
	reg.Store(newFakeHandle(1))
	if _, ok := reg.Take(); ok {
		t.Fatalf("nil registry should never yield a handle")
	}
	if _, ok := reg.Current(); ok {
		t.Fatalf("nil registry should report empty")
	}
}
