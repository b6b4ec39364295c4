package repo

import "testing"

func TestAddNewAssignsStableIncreasingIDs(t *testing.T) {
	r := New[string]()
	id1 := r.AddNew("a")
	id2 := r.AddNew("b")
	if id2 <= id1 {
		t.Fatalf("expected increasing IDs, got %d then %d", id1, id2)
	}
	if v := r.Get(id1); v != "a" {
		t.Fatalf("got %q, want %q", v, "a")
	}
}

func TestIterationOrderIsInsertionOrder(t *testing.T) {
	r := New[int]()
	ids := make([]ID, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, r.AddNew(i*10))
	}
	var seen []ID
	r.Iter(func(id ID, v int) bool {
		seen = append(seen, id)
		return true
	})
	if len(seen) != len(ids) {
		t.Fatalf("got %d entries, want %d", len(seen), len(ids))
	}
	for i, id := range ids {
		if seen[i] != id {
			t.Fatalf("order mismatch at %d: got %d, want %d", i, seen[i], id)
		}
	}
}

func TestRemoveDoesNotRenumberSurvivors(t *testing.T) {
	r := New[string]()
	a := r.AddNew("a")
	b := r.AddNew("b")
	c := r.AddNew("c")

	r.Remove(b)

	if r.Len() != 2 {
		t.Fatalf("want len 2 after remove, got %d", r.Len())
	}
	if v := r.Get(a); v != "a" {
		t.Fatalf("a moved: got %q", v)
	}
	if v := r.Get(c); v != "c" {
		t.Fatalf("c moved: got %q", v)
	}
	if _, ok := r.TryGet(b); ok {
		t.Fatal("removed ID should not be found")
	}

	// A new insertion must not reuse the removed ID.
	d := r.AddNew("d")
	if d == b {
		t.Fatal("new insertion reused a removed ID")
	}
}

func TestTryGetMissing(t *testing.T) {
	r := New[int]()
	if _, ok := r.TryGet(999); ok {
		t.Fatal("expected not found")
	}
}

func TestSetOverwritesWithoutReordering(t *testing.T) {
	r := New[int]()
	a := r.AddNew(1)
	b := r.AddNew(2)
	r.Set(a, 100)
	if r.Get(a) != 100 {
		t.Fatal("Set did not overwrite")
	}
	var order []ID
	r.Iter(func(id ID, v int) bool {
		order = append(order, id)
		return true
	})
	if len(order) != 2 || order[0] != a || order[1] != b {
		t.Fatalf("order changed after Set: %v", order)
	}
}
