package cmap

import "testing"

func TestMapSetGet(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)

	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("expected missing key to report false")
	}
}

func TestMapLoadOrStore(t *testing.T) {
	m := New[string, int]()

	v, loaded := m.LoadOrStore("a", 1)
	if loaded || v != 1 {
		t.Fatalf("first LoadOrStore = %d, %v", v, loaded)
	}

	v, loaded = m.LoadOrStore("a", 2)
	if !loaded || v != 1 {
		t.Fatalf("second LoadOrStore = %d, %v, want existing value 1", v, loaded)
	}
}

func TestMapRangeAndLen(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	seen := make(map[string]int)
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})

	if len(seen) != 2 {
		t.Fatalf("Range visited %d entries, want 2", len(seen))
	}
}
