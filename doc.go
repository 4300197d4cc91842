/*
Package sparsecs provides the storage, grouping, and query core of a
sparse-set Entity-Component-System.

Components live in per-type sparse sets: a growable entity-index-to-slot
map backed by a dense, contiguous array per component type. Declaring a
Layout lets related component types share a grouped prefix of their dense
arrays, so a query over that exact combination degenerates to a single
range scan instead of an intersection.

Core Concepts:

  - Entity: an index/version pair minted by a World.
  - Storage: a sparse set of one component type, with per-slot change ticks.
  - Layout: a declarative nesting of component groups the World keeps aligned.
  - View/MutView: a borrowed handle on one component type's storage.
  - Query: a base/Include/Exclude/Filter composition over borrowed views.

Basic Usage:

	world := sparsecs.NewWorld()

	world.Create(sparsecs.With(Position{0, 0}), sparsecs.With(Velocity{1, 1}))
	world.Create(sparsecs.With(Position{0, 0}), sparsecs.With(Velocity{2, 2}))
	world.AdvanceTicks()

	positions, _ := sparsecs.MutViewOf[Position](world)
	defer positions.Close()
	velocities, _ := sparsecs.ViewOf[Velocity](world)
	defer velocities.Close()

	q := sparsecs.NewQuery2[sparsecs.RefMut[Position], *Velocity](world, positions, velocities)
	for _, item := range q.Entities() {
		vel := item.B
		item.A.Get().X += vel.X
		item.A.Get().Y += vel.Y
	}

sparsecs is the storage core of a larger engine; dispatching user systems,
serialization, and a resource registry are layered on top by collaborators
and are out of scope for this module.
*/
package sparsecs
