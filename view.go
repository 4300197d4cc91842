package sparsecs

import "reflect"

// queryElement is the type-independent face of a borrowed view, used by
// the query engine to drive membership checks (Include/Exclude) without
// knowing the component's concrete type.
type queryElement interface {
	groupInfo() GroupInfo
	entitiesSlice() []Entity
	containsEntity(e Entity) bool
	lenAt() int
}

// baseElement additionally knows how to produce Item: either a read-only
// pointer (View) or a mutable handle (MutView), looked up by entity
// (sparse iteration) or by dense position (group-accelerated iteration).
type baseElement[Item any] interface {
	queryElement
	getItem(e Entity) (Item, bool)
	getItemAt(index int) (Entity, Item)
}

// storageOf returns T's storage, registering T on first use.
func storageOf[T any](w *World) *Storage[T] {
	t := reflect.TypeFor[T]()
	s, _, ok := w.storages.storageFor(t)
	if !ok {
		Register[T](w)
		s, _, _ = w.storages.storageFor(t)
	}
	return s.(*Storage[T])
}

// View is a read-only handle over one borrowed component storage, plus
// its group context and tick window. Call Close when done to release
// the borrow.
type View[T any] struct {
	storage    *Storage[T]
	info       GroupInfo
	worldTick  Tick
	changeTick Tick
	release    release
}

// ViewOf borrows component type T for shared (read-only) access.
func ViewOf[T any](w *World) (*View[T], error) {
	t := reflect.TypeFor[T]()
	if !w.storages.contains(t) {
		return nil, UnregisteredComponent{Component: t.String()}
	}
	rel, err := w.borrows.borrowShared(t)
	if err != nil {
		return nil, err
	}
	s, info, _ := w.storages.storageFor(t)
	return &View[T]{storage: s.(*Storage[T]), info: info, worldTick: w.tick, release: rel}, nil
}

// Since sets the view's change_tick -- the last tick the owning system
// ran. The Added/Mutated/Changed filters are built from the World with
// their own change tick argument; they do not read this value.
func (v *View[T]) Since(changeTick Tick) *View[T] {
	v.changeTick = changeTick
	return v
}

// Close releases the view's shared borrow.
func (v *View[T]) Close() { v.release() }

// Get returns a read-only pointer to e's component.
func (v *View[T]) Get(e Entity) (*T, bool) { return v.storage.Get(e) }

// GetWithTicks returns e's component alongside its ChangeTicks.
func (v *View[T]) GetWithTicks(e Entity) (*T, *ChangeTicks, bool) { return v.storage.GetWithTicks(e) }

// Entities returns the view's dense entity slice.
func (v *View[T]) Entities() []Entity { return v.storage.Entities() }

// Components returns the view's dense component slice.
func (v *View[T]) Components() []T { return v.storage.Components() }

// Ticks returns the view's dense ChangeTicks slice.
func (v *View[T]) Ticks() []ChangeTicks { return v.storage.Ticks() }

// Len returns the number of components visible through this view.
func (v *View[T]) Len() int { return v.storage.Len() }

// IsEmpty reports whether the view has no components.
func (v *View[T]) IsEmpty() bool { return v.storage.IsEmpty() }

func (v *View[T]) groupInfo() GroupInfo          { return v.info }
func (v *View[T]) entitiesSlice() []Entity       { return v.storage.Entities() }
func (v *View[T]) containsEntity(e Entity) bool  { return v.storage.Contains(e) }
func (v *View[T]) lenAt() int                    { return v.storage.Len() }
func (v *View[T]) getItem(e Entity) (*T, bool)   { return v.storage.Get(e) }
func (v *View[T]) getItemAt(index int) (Entity, *T) {
	return v.storage.entities[index], &v.storage.values[index]
}

var (
	_ queryElement     = (*View[int])(nil)
	_ baseElement[*int] = (*View[int])(nil)
)

// MutView is an exclusive handle over one borrowed component storage,
// able to yield RefMut handles that stamp Changed on access.
type MutView[T any] struct {
	storage    *Storage[T]
	info       GroupInfo
	worldTick  Tick
	changeTick Tick
	release    release
}

// MutViewOf borrows component type T for exclusive (read-write) access.
func MutViewOf[T any](w *World) (*MutView[T], error) {
	t := reflect.TypeFor[T]()
	if !w.storages.contains(t) {
		return nil, UnregisteredComponent{Component: t.String()}
	}
	rel, err := w.borrows.borrowExclusive(t)
	if err != nil {
		return nil, err
	}
	s, info, _ := w.storages.storageFor(t)
	return &MutView[T]{storage: s.(*Storage[T]), info: info, worldTick: w.tick, release: rel}, nil
}

// Since sets the view's change_tick, as with View.Since.
func (v *MutView[T]) Since(changeTick Tick) *MutView[T] {
	v.changeTick = changeTick
	return v
}

// Close releases the view's exclusive borrow.
func (v *MutView[T]) Close() { v.release() }

// Get returns a read-only pointer to e's component.
func (v *MutView[T]) Get(e Entity) (*T, bool) { return v.storage.Get(e) }

// GetMut returns a mutable handle to e's component.
func (v *MutView[T]) GetMut(e Entity) (RefMut[T], bool) { return v.storage.GetMut(e, v.worldTick) }

// Entities returns the view's dense entity slice.
func (v *MutView[T]) Entities() []Entity { return v.storage.Entities() }

// Len returns the number of components visible through this view.
func (v *MutView[T]) Len() int { return v.storage.Len() }

// IsEmpty reports whether the view has no components.
func (v *MutView[T]) IsEmpty() bool { return v.storage.IsEmpty() }

func (v *MutView[T]) groupInfo() GroupInfo         { return v.info }
func (v *MutView[T]) entitiesSlice() []Entity      { return v.storage.Entities() }
func (v *MutView[T]) containsEntity(e Entity) bool { return v.storage.Contains(e) }
func (v *MutView[T]) lenAt() int                   { return v.storage.Len() }

func (v *MutView[T]) getItem(e Entity) (RefMut[T], bool) {
	return v.storage.GetMut(e, v.worldTick)
}

func (v *MutView[T]) getItemAt(index int) (Entity, RefMut[T]) {
	return v.storage.entities[index], RefMut[T]{
		value:     &v.storage.values[index],
		ticks:     &v.storage.ticks[index],
		worldTick: v.worldTick,
	}
}

var (
	_ queryElement           = (*MutView[int])(nil)
	_ baseElement[RefMut[int]] = (*MutView[int])(nil)
)
