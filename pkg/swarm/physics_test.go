package swarm

import (
	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
)

type fakeBody struct {
	pos, vel geometry.Vector2D
	static   bool
}

// fakePhysics is a point-body world that answers region queries by brute force.
type fakePhysics struct {
	bodies  map[ecs.Entity]*fakeBody
	order   []ecs.Entity
	walls   []geometry.AABB
	applied []Impulse
	queries int
}

func newFakePhysics() *fakePhysics {
	return &fakePhysics{bodies: make(map[ecs.Entity]*fakeBody)}
}

func (f *fakePhysics) add(e ecs.Entity, pos, vel geometry.Vector2D) {
	f.bodies[e] = &fakeBody{pos: pos, vel: vel}
	f.order = append(f.order, e)
}

func (f *fakePhysics) forget(e ecs.Entity) {
	delete(f.bodies, e)
}

func (f *fakePhysics) Position(e ecs.Entity) (geometry.Vector2D, bool) {
	b, ok := f.bodies[e]
	if !ok {
		return geometry.Zero, false
	}
	return b.pos, true
}

func (f *fakePhysics) Velocity(e ecs.Entity) (geometry.Vector2D, bool) {
	b, ok := f.bodies[e]
	if !ok {
		return geometry.Zero, false
	}
	return b.vel, true
}

func (f *fakePhysics) IsDynamic(e ecs.Entity) bool {
	b, ok := f.bodies[e]
	return ok && !b.static
}

func (f *fakePhysics) QueryRegion(box geometry.AABB, visit func(ecs.Entity)) {
	f.queries++
	for _, e := range f.order {
		b, ok := f.bodies[e]
		if ok && box.Contains(b.pos) {
			visit(e)
		}
	}
	for _, w := range f.walls {
		if w.Overlaps(box) {
			visit(ecs.Entity{})
		}
	}
}

func (f *fakePhysics) ApplyImpulse(e ecs.Entity, impulse, at geometry.Vector2D) {
	f.applied = append(f.applied, Impulse{Entity: e, Vector: impulse, At: at})
	if b, ok := f.bodies[e]; ok {
		b.vel = b.vel.Add(impulse)
	}
}

// fixture bundles a world, its state table and the fake physics.
type fixture struct {
	world  *ecs.World
	states *StateTable
	phys   *fakePhysics
}

func newFixture() *fixture {
	world := ecs.NewWorld()
	return &fixture{
		world:  world,
		states: NewStateTable(world),
		phys:   newFakePhysics(),
	}
}

func (fx *fixture) unit(pos, vel geometry.Vector2D) ecs.Entity {
	e := fx.states.Spawn()
	fx.phys.add(e, pos, vel)
	return e
}
