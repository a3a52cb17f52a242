package components

import "gonum.org/v1/gonum/spatial/r3"

// ECS components used by the host population. The engine never sees these;
// the host flattens them into Descriptors.

// Label holds an entity's category.
type Label struct {
	Category Category
}

// Flags holds externally controlled visibility and lock state.
type Flags struct {
	Visible bool
	Locked  bool
}

// Placement holds the spawn point and the height mapped from the category.
type Placement struct {
	Spawn  r3.Vec
	Height float64
}
