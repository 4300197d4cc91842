package sparsecs

import "reflect"

// World owns every entity, component storage, and borrow state. It is
// not safe for concurrent use from multiple goroutines without external
// synchronization -- the borrow registry guards against conflicting
// Views within a single-threaded system schedule, not against races.
type World struct {
	entities *entityAllocator
	storages *componentStorages
	borrows  *borrowRegistry
	tick     Tick
}

// NewWorld returns an empty World with no layout: every component type
// gets its own ungrouped sparse-set storage on first use.
func NewWorld() *World {
	return &World{
		entities: newEntityAllocator(),
		storages: newComponentStorages(),
		borrows:  newBorrowRegistry(),
	}
}

// WithLayout returns an empty World with layout applied from the start.
func WithLayout(layout *Layout) (*World, error) {
	w := NewWorld()
	if err := w.storages.setLayout(layout); err != nil {
		return nil, err
	}
	return w, nil
}

// SetLayout (re)applies layout to a World that may already hold entities
// and components, re-grouping every affected entity in the process.
func (w *World) SetLayout(layout *Layout) error {
	return w.storages.setLayout(layout)
}

// Register allocates T's storage and mask bit, if it doesn't already
// have one. Idempotent; Insert, Get, Remove and the Added/Mutated/Changed
// filters call it on first use. ViewOf and MutViewOf do not: they return
// UnregisteredComponent for a type that has no storage yet.
func Register[T any](w *World) {
	t := reflect.TypeFor[T]()
	if w.storages.contains(t) {
		return
	}
	w.storages.registerStorage(t, NewStorage[T]())
}

// Setter captures a (type, value) component assignment, built by With,
// for use with Create and Extend.
type Setter struct {
	typ   reflect.Type
	apply func(w *World, e Entity)
}

// With builds a Setter assigning value (of type T) to an entity. This is
// the idiomatic Go stand-in for the source engine's variadic component
// tuple: since Go generics can't express a heterogeneous tuple directly,
// each component is instead named by its own With[T] call.
func With[T any](value T) Setter {
	return Setter{
		typ: reflect.TypeFor[T](),
		apply: func(w *World, e Entity) {
			Insert[T](w, e, value)
		},
	}
}

// Create mints a new entity and applies every setter to it.
func (w *World) Create(setters ...Setter) Entity {
	e := w.entities.Create()
	for _, s := range setters {
		s.apply(w, e)
	}
	return e
}

// Extend mints len(rows) entities, applying rows[i] to the i-th new
// entity. Rows may use different component sets; this is the Go
// equivalent of the source engine's extend-from-iterator bulk create.
func (w *World) Extend(rows ...[]Setter) []Entity {
	out := make([]Entity, len(rows))
	for i, row := range rows {
		out[i] = w.Create(row...)
	}
	return out
}

// Destroy removes e and every one of its components. Returns false if e
// was already dead.
func (w *World) Destroy(e Entity) bool {
	if !w.entities.Destroy(e) {
		return false
	}
	for fi := 0; fi < w.storages.familyCount(); fi++ {
		w.storages.ungroupComponents(fi, e)
	}
	w.storages.iterErased(func(s erasedStorage) { s.removeErased(e) })
	return true
}

// Contains reports whether e is currently live.
func (w *World) Contains(e Entity) bool { return w.entities.Contains(e) }

// Len returns the number of live entities.
func (w *World) Len() int { return w.entities.Len() }

// Clear removes every entity and component, keeping the current layout
// and registered types.
func (w *World) Clear() {
	w.entities.Clear()
	w.storages.clear()
}

// Tick returns the world's current tick.
func (w *World) Tick() Tick { return w.tick }

// AdvanceTicks moves the world clock forward by one, as a system
// schedule does between runs. Returns TickOverflow instead of wrapping.
func (w *World) AdvanceTicks() error {
	if w.tick == maxTick {
		return TickOverflow{}
	}
	w.tick++
	return nil
}

// Insert adds or overwrites e's component of type T, registering T if
// needed and re-running the grouping engine for e if T belongs to a
// layout family. Returns NoSuchEntity if e is not live.
func Insert[T any](w *World, e Entity, value T) error {
	if !w.entities.Contains(e) {
		return NoSuchEntity{Entity: e}
	}
	t := reflect.TypeFor[T]()
	if !w.storages.contains(t) {
		Register[T](w)
	}
	storage := storageOf[T](w)
	storage.Insert(e, value, w.tick)
	if fi, ok := w.storages.groupFamilyOf(t); ok {
		w.storages.groupComponents(fi, e)
	}
	return nil
}

// Remove removes and returns e's component of type T. If T belongs to a
// layout family, e is ungrouped from that family first and regrouped
// afterwards into the groups its remaining components still complete,
// so the group invariants hold.
func Remove[T any](w *World, e Entity) (T, bool) {
	t := reflect.TypeFor[T]()
	fi, grouped := w.storages.groupFamilyOf(t)
	if grouped {
		w.storages.ungroupComponents(fi, e)
	}
	storage := storageOf[T](w)
	val, ok := storage.Remove(e)
	if grouped {
		w.storages.groupComponents(fi, e)
	}
	return val, ok
}

// Delete removes e's component of type T, discarding it.
func Delete[T any](w *World, e Entity) {
	_, _ = Remove[T](w, e)
}

// Get returns a read-only pointer to e's component of type T, without
// taking out a borrow. Prefer ViewOf for query-driven iteration; Get is
// for one-off point lookups.
func Get[T any](w *World, e Entity) (*T, bool) {
	return storageOf[T](w).Get(e)
}

// borrow acquires a shared borrow on t, returning its erased storage,
// group context, and release func.
func (w *World) borrow(t reflect.Type) (erasedStorage, GroupInfo, release, error) {
	if !w.storages.contains(t) {
		return nil, GroupInfo{}, nil, UnregisteredComponent{Component: t.String()}
	}
	rel, err := w.borrows.borrowShared(t)
	if err != nil {
		return nil, GroupInfo{}, nil, err
	}
	s, info, _ := w.storages.storageFor(t)
	return s, info, rel, nil
}

// borrowMut acquires an exclusive borrow on t.
func (w *World) borrowMut(t reflect.Type) (erasedStorage, GroupInfo, release, error) {
	if !w.storages.contains(t) {
		return nil, GroupInfo{}, nil, UnregisteredComponent{Component: t.String()}
	}
	rel, err := w.borrows.borrowExclusive(t)
	if err != nil {
		return nil, GroupInfo{}, nil, err
	}
	s, info, _ := w.storages.storageFor(t)
	return s, info, rel, nil
}
