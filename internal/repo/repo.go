// Package repo implements the append-only, insertion-ordered, ID-indexed
// entity container that every domain repository (dwellings, households,
// persons, families) is built on. Cyclic relationships
// between entities (Person <-> Family <-> Household <-> Dwelling) are
// expressed as stored IDs resolved back through a Repository at use sites,
// never as owning pointers, so the arena carries no ownership ambiguity and
// is safe for concurrent reads.
package repo

// ID is a stable, monotonically assigned identifier. IDs are never reused
// even after Remove, so a stored ID always identifies the same entity it
// was assigned to (or nothing, if removed).
type ID uint64

// Repository maps ID -> entity with insertion-order iteration and O(1)
// lookup. It is not safe for concurrent mutation; callers batch writes
// outside the iteration windows used during a monthly clear, per the
// concurrency model's "repositories are read-only during a clear except
// for serial appends during resolution" rule.
type Repository[T any] struct {
	order   []ID
	entries map[ID]T
	nextID  ID
}

// New creates an empty Repository.
func New[T any]() *Repository[T] {
	return &Repository[T]{entries: make(map[ID]T)}
}

// AddNew inserts entity and returns the ID assigned to it.
func (r *Repository[T]) AddNew(entity T) ID {
	id := r.nextID
	r.nextID++
	r.entries[id] = entity
	r.order = append(r.order, id)
	return id
}

// Get returns the entity for id. It panics if id is not present; callers
// that expect a possibly-absent ID should use TryGet instead.
func (r *Repository[T]) Get(id ID) T {
	v, ok := r.entries[id]
	if !ok {
		panic("repo: Get called with unknown ID")
	}
	return v
}

// TryGet returns the entity for id and whether it was found.
func (r *Repository[T]) TryGet(id ID) (T, bool) {
	v, ok := r.entries[id]
	return v, ok
}

// Set overwrites the entity stored for an existing id, without touching
// insertion order. It panics if id is not present.
func (r *Repository[T]) Set(id ID, entity T) {
	if _, ok := r.entries[id]; !ok {
		panic("repo: Set called with unknown ID")
	}
	r.entries[id] = entity
}

// Remove deletes id from the repository. Surviving entities keep their
// original IDs; removal never renumbers them.
func (r *Repository[T]) Remove(id ID) {
	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live entities.
func (r *Repository[T]) Len() int {
	return len(r.order)
}

// Iter calls fn for every live entity in insertion order, stopping early if
// fn returns false.
func (r *Repository[T]) Iter(fn func(ID, T) bool) {
	for _, id := range r.order {
		v, ok := r.entries[id]
		if !ok {
			continue
		}
		if !fn(id, v) {
			return
		}
	}
}

// All returns a snapshot slice of (ID, entity) pairs in insertion order.
// Safe to iterate independently of the repository afterward.
func (r *Repository[T]) All() []struct {
	ID     ID
	Entity T
} {
	out := make([]struct {
		ID     ID
		Entity T
	}, 0, len(r.order))
	for _, id := range r.order {
		v, ok := r.entries[id]
		if !ok {
			continue
		}
		out = append(out, struct {
			ID     ID
			Entity T
		}{ID: id, Entity: v})
	}
	return out
}
