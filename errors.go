package sparsecs

import "fmt"

// NoSuchEntity is returned when an operation targets an entity that is
// absent from the World, or whose version no longer matches (it was
// destroyed and its slot reused).
type NoSuchEntity struct {
	Entity Entity
}

func (e NoSuchEntity) Error() string {
	return fmt.Sprintf("no such entity: %v", e.Entity)
}

// TickOverflow is returned by AdvanceTicks when incrementing the world
// tick would overflow its domain. The caller must stop advancing ticks;
// recovery is application-defined.
type TickOverflow struct{}

func (e TickOverflow) Error() string {
	return "world tick would overflow"
}

// BorrowConflict is returned when a requested shared or exclusive borrow
// of a storage conflicts with one already outstanding. This is always a
// dispatcher bug: borrows must be scheduled so they never collide.
type BorrowConflict struct {
	Component string
}

func (e BorrowConflict) Error() string {
	return fmt.Sprintf("borrow conflict on component %s", e.Component)
}

// UnregisteredComponent is returned when borrowing (ViewOf, MutViewOf) a
// component type that was never registered with the World. Insert, Get
// and Remove register the type instead of returning this error.
type UnregisteredComponent struct {
	Component string
}

func (e UnregisteredComponent) Error() string {
	return fmt.Sprintf("component %s is not registered", e.Component)
}

// LayoutConflict is returned by Layout.AddFamily when the requested
// family is invalid: a component type already belongs to another family,
// or the family's groups are not strictly nested prefixes. SetLayout
// returns it when the layout names a component type that is not
// registered.
type LayoutConflict struct {
	Reason string
}

func (e LayoutConflict) Error() string {
	return fmt.Sprintf("layout conflict: %s", e.Reason)
}
