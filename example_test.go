package sparsecs_test

import (
	"fmt"

	"sparsecs"
)

// Position is a simple 2D coordinate component.
type Position struct{ X, Y float64 }

// Velocity is a simple 2D displacement component.
type Velocity struct{ X, Y float64 }

// Example_basic shows entity creation, component access, and a
// mutable two-component query applying velocity to position.
func Example_basic() {
	world := sparsecs.NewWorld()

	world.Create(sparsecs.With(Position{0, 0}), sparsecs.With(Velocity{1, 1}))
	world.Create(sparsecs.With(Position{10, 10}), sparsecs.With(Velocity{-1, 0}))

	positions, err := sparsecs.MutViewOf[Position](world)
	if err != nil {
		fmt.Println("borrow error:", err)
		return
	}
	defer positions.Close()
	velocities, err := sparsecs.ViewOf[Velocity](world)
	if err != nil {
		fmt.Println("borrow error:", err)
		return
	}
	defer velocities.Close()

	q := sparsecs.NewQuery2[sparsecs.RefMut[Position], *Velocity](world, positions, velocities)
	for _, item := range q.Entities() {
		vel := item.B
		item.A.Get().X += vel.X
		item.A.Get().Y += vel.Y
	}

	for _, p := range positions.Entities() {
		pos, _ := positions.Get(p)
		fmt.Printf("%.0f,%.0f\n", pos.X, pos.Y)
	}

	// Output:
	// 1,1
	// 9,10
}

// Example_queries shows Include/Exclude narrowing a query without
// pulling the extra component's value into the result item.
func Example_queries() {
	world := sparsecs.NewWorld()

	type Tag struct{}

	world.Create(sparsecs.With(Position{1, 1}))
	world.Create(sparsecs.With(Position{2, 2}), sparsecs.With(Tag{}))

	positions, _ := sparsecs.ViewOf[Position](world)
	defer positions.Close()
	tags, _ := sparsecs.ViewOf[Tag](world)
	defer tags.Close()

	q := sparsecs.NewQuery1[*Position](world, positions).Exclude(tags)
	for _, item := range q.Entities() {
		fmt.Printf("%.0f,%.0f\n", item.A.X, item.A.Y)
	}

	// Output:
	// 1,1
}
