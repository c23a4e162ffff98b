package swarm

import (
	"testing"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborsRadiusBoundary(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	onEdge := fx.unit(geometry.NewVector(10, 0), geometry.Zero)
	fx.unit(geometry.NewVector(10.001, 0), geometry.Zero)
	// inside the query square but outside the circle
	fx.unit(geometry.NewVector(8, 8), geometry.Zero)

	got := Neighbors(fx.phys, self, geometry.Zero, 10, nil)
	require.Len(t, got, 1)
	assert.Equal(t, onEdge, got[0].Entity)
	assert.InDelta(t, 100, got[0].DistSq, 1e-12)
}

func TestNeighborsExcludesSelfWallsAndStale(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	stale := fx.unit(geometry.NewVector(1, 0), geometry.Zero)
	live := fx.unit(geometry.NewVector(0, 1), geometry.NewVector(2, 0))
	fx.phys.forget(stale)
	fx.phys.walls = append(fx.phys.walls, geometry.AABB{
		Min: geometry.NewVector(-5, -5),
		Max: geometry.NewVector(5, -4),
	})

	got := Neighbors(fx.phys, self, geometry.Zero, 10, nil)
	require.Len(t, got, 1)
	assert.Equal(t, live, got[0].Entity)
	assert.Equal(t, geometry.NewVector(2, 0), got[0].Velocity)
}

func TestNeighborsSkipsStaticBodies(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	pillar := fx.unit(geometry.NewVector(1, 1), geometry.Zero)
	fx.phys.bodies[pillar].static = true

	assert.Empty(t, Neighbors(fx.phys, self, geometry.Zero, 10, nil))
}

func TestNeighborsDegenerateQuery(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	fx.unit(geometry.NewVector(1, 0), geometry.Zero)

	assert.Empty(t, Neighbors(fx.phys, self, geometry.Zero, 0, nil))
	assert.Zero(t, fx.phys.queries, "a zero radius must not reach the broad phase")
}

func TestNeighborsReusesBuffer(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	fx.unit(geometry.NewVector(1, 0), geometry.Zero)

	buf := make([]Neighbor, 0, 4)
	got := Neighbors(fx.phys, self, geometry.Zero, 10, buf)
	require.Len(t, got, 1)
	assert.Same(t, &buf[:1][0], &got[0])
}

func TestStateTableLifecycle(t *testing.T) {
	fx := newFixture()
	a := fx.states.Spawn()
	b := fx.states.Spawn()
	require.NotNil(t, fx.states.Get(a))
	assert.Equal(t, 2, fx.states.Len())

	fx.states.Remove(a)
	assert.Nil(t, fx.states.Get(a))
	assert.False(t, fx.states.Alive(a))
	assert.Equal(t, []ecs.Entity{b}, fx.states.Entities(nil))

	// zero and repeated removals are no-ops
	fx.states.Remove(a)
	fx.states.Remove(ecs.Entity{})
	assert.Nil(t, fx.states.Get(ecs.Entity{}))
	assert.Equal(t, 1, fx.states.Len())

	// a live entity of the same world that is not a unit
	wall := ecs.NewMap1[obstacle](fx.world).NewEntity(&obstacle{id: 1})
	assert.True(t, fx.states.Alive(wall))
	assert.Nil(t, fx.states.Get(wall))
	assert.Equal(t, 1, fx.states.Len())
}

type obstacle struct{ id int }

func TestNeighborsReportsEachUnitOnce(t *testing.T) {
	fx := newFixture()
	self := fx.unit(geometry.Zero, geometry.Zero)
	twoShapes := fx.unit(geometry.NewVector(5, 0), geometry.Zero)
	// a second fixture on the same body
	fx.phys.order = append(fx.phys.order, twoShapes)

	prior := []Neighbor{{Entity: twoShapes}}
	got := Neighbors(fx.phys, self, geometry.Zero, 10, prior)
	require.Len(t, got, 2, "entries already in dst are kept, the query adds one")
	assert.Equal(t, twoShapes, got[1].Entity)

	got = Neighbors(fx.phys, self, geometry.Zero, 10, nil)
	require.Len(t, got, 1)
	// 0.5 * 0.05 * (10-5)/10
	assert.InDelta(t, 0.0125, Cohesion(geometry.Zero, got, 10, 0.05).X, tolerance)
}
