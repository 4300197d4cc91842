package sparsecs

// erasedStorage is the type-independent face of a Storage[T], used by the
// grouping engine and the borrow registry, neither of which know or care
// about the component's concrete type.
type erasedStorage interface {
	contains(e Entity) bool
	indexOf(e Entity) (uint32, bool)
	swapIndices(i, j int)
	removeErased(e Entity) bool
	insertErased(e Entity, value any, worldTick Tick)
	length() int
	clearAll()
	entitiesErased() []Entity
}

// RefMut is a handle to a mutably-borrowed component. Calling Get stamps
// the slot's ChangeTicks.Changed to the world tick in effect when the
// handle was issued; this centralizes change tracking the way the source
// engine's mutable access wrapper does, since Go has no way to intercept
// a plain pointer dereference.
type RefMut[T any] struct {
	value     *T
	ticks     *ChangeTicks
	worldTick Tick
}

// Get returns the mutable component pointer and marks it changed.
func (r RefMut[T]) Get() *T {
	r.ticks.Changed = r.worldTick
	return r.value
}

// Peek returns the mutable component pointer without marking it changed.
// Useful for read-mostly code paths that only conditionally write.
func (r RefMut[T]) Peek() *T {
	return r.value
}

// Storage is a sparse set over entities for a single component type T: a
// sparseArray mapping entity index to dense slot, plus three
// one-to-one-correspondence dense arrays (entities, values, ticks).
type Storage[T any] struct {
	sparse   sparseArray
	entities []Entity
	values   []T
	ticks    []ChangeTicks
}

// NewStorage allocates an empty Storage[T], pre-reserving Config's
// default dense-array capacity.
func NewStorage[T any]() *Storage[T] {
	if n := Config.defaultCapacity; n > 0 {
		return &Storage[T]{
			entities: make([]Entity, 0, n),
			values:   make([]T, 0, n),
			ticks:    make([]ChangeTicks, 0, n),
		}
	}
	return &Storage[T]{}
}

// Insert adds or overwrites entity e's component. Absent: appended with
// Added == Changed == worldTick. Present with a matching version:
// overwritten, Changed bumped, Added preserved, previous value returned.
// Present with a stale sparse version: treated as a fresh insert (spec
// §9 open question 2), resetting Added.
func (s *Storage[T]) Insert(e Entity, value T, worldTick Tick) (old T, hadOld bool) {
	if int(e.index) <= len(s.sparse.entries) {
		ie := s.sparse.entries[e.index-1]
		if ie.some && ie.version == e.version {
			old = s.values[ie.index]
			s.values[ie.index] = value
			s.ticks[ie.index].Changed = worldTick
			return old, true
		}
		if ie.some {
			// Stale version occupying this slot: drop it like a remove,
			// then fall through to a fresh append below.
			s.removeAt(ie.index)
		}
	}

	idx := uint32(len(s.entities))
	s.entities = append(s.entities, e)
	s.values = append(s.values, value)
	s.ticks = append(s.ticks, ChangeTicks{Added: worldTick, Changed: worldTick})
	s.sparse.set(e, idx)
	return old, false
}

// Remove swap-removes e's component, returning the removed value.
func (s *Storage[T]) Remove(e Entity) (T, bool) {
	ie, ok := s.sparse.get(e)
	if !ok {
		var zero T
		return zero, false
	}
	val := s.values[ie.index]
	s.removeAt(ie.index)
	return val, true
}

// removeAt swap-removes the dense slot at index, rewriting the moved
// tail entity's sparse entry and clearing the removed entity's entry.
func (s *Storage[T]) removeAt(index uint32) {
	last := uint32(len(s.entities)) - 1
	removedEntity := s.entities[index]

	if index != last {
		movedEntity := s.entities[last]
		s.entities[index] = movedEntity
		s.values[index] = s.values[last]
		s.ticks[index] = s.ticks[last]
		s.sparse.rewriteIndex(movedEntity.index, index)
	}

	s.entities = s.entities[:last]
	s.values = s.values[:last]
	s.ticks = s.ticks[:last]
	s.sparse.clear(removedEntity.index)
}

// Get returns a read-only pointer to e's component.
func (s *Storage[T]) Get(e Entity) (*T, bool) {
	ie, ok := s.sparse.get(e)
	if !ok {
		return nil, false
	}
	return &s.values[ie.index], true
}

// GetMut returns a RefMut for e's component; dereferencing it via Get
// stamps Changed to worldTick.
func (s *Storage[T]) GetMut(e Entity, worldTick Tick) (RefMut[T], bool) {
	ie, ok := s.sparse.get(e)
	if !ok {
		return RefMut[T]{}, false
	}
	return RefMut[T]{value: &s.values[ie.index], ticks: &s.ticks[ie.index], worldTick: worldTick}, true
}

// GetWithTicks returns both the component and its ChangeTicks.
func (s *Storage[T]) GetWithTicks(e Entity) (*T, *ChangeTicks, bool) {
	ie, ok := s.sparse.get(e)
	if !ok {
		return nil, nil, false
	}
	return &s.values[ie.index], &s.ticks[ie.index], true
}

// Contains reports whether e currently has a component in this storage.
func (s *Storage[T]) Contains(e Entity) bool {
	return s.sparse.contains(e)
}

// Len returns the number of live components.
func (s *Storage[T]) Len() int { return len(s.entities) }

// IsEmpty reports whether the storage holds no components.
func (s *Storage[T]) IsEmpty() bool { return len(s.entities) == 0 }

// Entities returns the dense entity array, in iteration order.
func (s *Storage[T]) Entities() []Entity { return s.entities }

// Components returns the dense component array, in one-to-one
// correspondence with Entities().
func (s *Storage[T]) Components() []T { return s.values }

// Ticks returns the dense ChangeTicks array, in one-to-one
// correspondence with Entities().
func (s *Storage[T]) Ticks() []ChangeTicks { return s.ticks }

// Swap exchanges dense positions i and j across all three parallel
// arrays and fixes up the two moved entities' sparse entries. Called
// only by the grouping engine, under an exclusive borrow.
func (s *Storage[T]) Swap(i, j int) {
	if i == j {
		return
	}
	s.entities[i], s.entities[j] = s.entities[j], s.entities[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.ticks[i], s.ticks[j] = s.ticks[j], s.ticks[i]
	s.sparse.rewriteIndex(s.entities[i].index, uint32(i))
	s.sparse.rewriteIndex(s.entities[j].index, uint32(j))
}

// split returns simultaneous references to the sparse array, the dense
// entity slice, and the dense value/tick slices, for the query engine to
// build parallel iteration over. The caller must not outlive, or
// structurally mutate through, a different handle to the same storage
// while holding these.
func (s *Storage[T]) split() (*sparseArray, []Entity, []T, []ChangeTicks) {
	return &s.sparse, s.entities, s.values, s.ticks
}

// --- erasedStorage ---

func (s *Storage[T]) contains(e Entity) bool { return s.Contains(e) }

func (s *Storage[T]) indexOf(e Entity) (uint32, bool) {
	ie, ok := s.sparse.get(e)
	if !ok {
		return 0, false
	}
	return ie.index, true
}

func (s *Storage[T]) swapIndices(i, j int) { s.Swap(i, j) }

func (s *Storage[T]) removeErased(e Entity) bool {
	_, ok := s.Remove(e)
	return ok
}

// insertErased inserts a value of dynamic type T, panicking if value does
// not actually hold a T. Used only by World.Create/Extend, which derive T
// from reflect.TypeOf(value) before routing to this storage.
func (s *Storage[T]) insertErased(e Entity, value any, worldTick Tick) {
	s.Insert(e, value.(T), worldTick)
}

func (s *Storage[T]) length() int { return s.Len() }

func (s *Storage[T]) clearAll() {
	s.sparse = sparseArray{}
	s.entities = nil
	s.values = nil
	s.ticks = nil
}

func (s *Storage[T]) entitiesErased() []Entity { return s.entities }

var _ erasedStorage = (*Storage[int])(nil)
