package swarm

import (
	"slices"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
)

// Physics is the port to the rigid-body world. The controller only reads
// body state through it and hands impulses back.
type Physics interface {
	// Position returns the world center of mass of e. ok is false for
	// entities the physics world no longer knows.
	Position(e ecs.Entity) (pos geometry.Vector2D, ok bool)
	// Velocity returns the linear velocity of e.
	Velocity(e ecs.Entity) (vel geometry.Vector2D, ok bool)
	// IsDynamic reports whether e is a live dynamic body.
	IsDynamic(e ecs.Entity) bool
	// QueryRegion calls visit for every shape whose bounding box overlaps
	// box, so a body with several shapes may be reported more than once.
	// Static bodies are reported with the zero entity.
	QueryRegion(box geometry.AABB, visit func(e ecs.Entity))
	// ApplyImpulse adds an instantaneous impulse to e at the world point at.
	ApplyImpulse(e ecs.Entity, impulse, at geometry.Vector2D)
}

// Neighbor is a unit found by a neighbor query, with the state read while
// filtering so the generators do not go back to the physics world.
type Neighbor struct {
	Entity   ecs.Entity
	Position geometry.Vector2D
	Velocity geometry.Vector2D
	DistSq   float64
}

// Neighbors appends to dst every dynamic unit within radius of origin,
// excluding self. The broad phase prunes by bounding box, then the squared
// distance turns the square into an exact circle. Each unit is appended at
// most once. Order is unspecified.
func Neighbors(phys Physics, self ecs.Entity, origin geometry.Vector2D, radius float64, dst []Neighbor) []Neighbor {
	if radius <= 0 || !origin.IsFinite() {
		return dst
	}
	radiusSq := radius * radius
	box := geometry.NewSquare(origin, radius)
	start := len(dst)

	phys.QueryRegion(box, func(other ecs.Entity) {
		if other == self || !phys.IsDynamic(other) || reported(dst[start:], other) {
			return
		}
		n, ok := readNeighbor(phys, other, origin)
		if !ok || n.DistSq > radiusSq {
			return
		}
		dst = append(dst, n)
	})
	return dst
}

func reported(found []Neighbor, e ecs.Entity) bool {
	return slices.ContainsFunc(found, func(n Neighbor) bool { return n.Entity == e })
}

// readNeighbor reads the state of other. Stale handles and malformed
// positions are rejected.
func readNeighbor(phys Physics, other ecs.Entity, origin geometry.Vector2D) (Neighbor, bool) {
	pos, ok := phys.Position(other)
	if !ok || !pos.IsFinite() {
		return Neighbor{}, false
	}
	vel, ok := phys.Velocity(other)
	if !ok {
		return Neighbor{}, false
	}
	return Neighbor{
		Entity:   other,
		Position: pos,
		Velocity: vel,
		DistSq:   pos.DistanceSquaredTo(origin),
	}, true
}
