package physics

import (
	"errors"
	"testing"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type unitFactory struct {
	world *ecs.World
	ids   *ecs.Map1[tag]
}

type tag struct{ id int }

func newUnitFactory() *unitFactory {
	w := ecs.NewWorld()
	return &unitFactory{world: w, ids: ecs.NewMap1[tag](w)}
}

func (u *unitFactory) next() ecs.Entity {
	return u.ids.NewEntity(&tag{})
}

func newArena(t *testing.T) *Arena {
	t.Helper()
	a, err := NewArena(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func TestNewArenaRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"huge radius", func(c *Config) { c.UnitRadius = 30 }},
		{"no density", func(c *Config) { c.Density = 0 }},
		{"damping above one", func(c *Config) { c.Damping = 1.5 }},
		{"no iterations", func(c *Config) { c.Iterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewArena(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestAddAndRemoveUnit(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	e := units.next()

	require.NoError(t, a.AddUnit(e, geometry.NewVector(10, 10)))
	assert.True(t, a.IsDynamic(e))
	pos, ok := a.Position(e)
	require.True(t, ok)
	assert.InDelta(t, 10, pos.X, 1e-9)
	assert.InDelta(t, 10, pos.Y, 1e-9)

	err := a.AddUnit(e, geometry.NewVector(20, 20))
	assert.True(t, errors.Is(err, ErrDuplicateUnit))

	a.RemoveUnit(e)
	assert.False(t, a.IsDynamic(e))
	_, ok = a.Position(e)
	assert.False(t, ok)
	assert.Zero(t, a.Len())
	a.RemoveUnit(e)
}

func TestAddUnitOutsideWalls(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	for _, p := range []geometry.Vector2D{
		geometry.NewVector(-1, 5),
		geometry.NewVector(5, 48),
		geometry.NewVector(0.1, 5),
	} {
		err := a.AddUnit(units.next(), p)
		assert.ErrorIs(t, err, ErrOutOfBounds, "position %v", p)
	}
}

func TestImpulseChangesVelocity(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	e := units.next()
	require.NoError(t, a.AddUnit(e, geometry.NewVector(32, 24)))

	pos, _ := a.Position(e)
	a.ApplyImpulse(e, geometry.NewVector(1, 0), pos)
	vel, ok := a.Velocity(e)
	require.True(t, ok)
	assert.Greater(t, vel.X, 0.0)
	assert.InDelta(t, 0, vel.Y, 1e-9)

	a.Step(50 * time.Millisecond)
	moved, _ := a.Position(e)
	assert.Greater(t, moved.X, pos.X)
	assert.Equal(t, uint64(1), a.Steps())
}

func TestDampingSlowsUnits(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	e := units.next()
	require.NoError(t, a.AddUnit(e, geometry.NewVector(32, 24)))
	require.True(t, a.Kick(e, geometry.NewVector(0, 0.5)))

	before, _ := a.Velocity(e)
	for i := 0; i < 20; i++ {
		a.Step(50 * time.Millisecond)
	}
	after, _ := a.Velocity(e)
	// one second at damping 0.6
	assert.InDelta(t, before.Len()*0.6, after.Len(), before.Len()*0.01)
}

func TestWallsContainUnits(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	var es []ecs.Entity
	for i := 0; i < 8; i++ {
		e := units.next()
		require.NoError(t, a.AddUnit(e, geometry.NewVector(4+float64(i)*7, 24)))
		a.Kick(e, geometry.NewVectorPolar(2, float64(i)))
		es = append(es, e)
	}
	for i := 0; i < 400; i++ {
		a.Step(50 * time.Millisecond)
	}
	for _, e := range es {
		pos, ok := a.Position(e)
		require.True(t, ok)
		assert.True(t, a.Bounds().Contains(pos), "unit escaped to %v", pos)
	}
}

func TestQueryRegionReportsWallsAsZero(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	e := units.next()
	require.NoError(t, a.AddUnit(e, geometry.NewVector(1, 1)))

	var seen []ecs.Entity
	a.QueryRegion(geometry.NewSquare(geometry.NewVector(1, 1), 2), func(got ecs.Entity) {
		seen = append(seen, got)
	})
	assert.Contains(t, seen, e)
	assert.Contains(t, seen, ecs.Entity{})
	assert.False(t, a.IsDynamic(ecs.Entity{}))
}

func TestNearestUnit(t *testing.T) {
	a := newArena(t)
	units := newUnitFactory()
	near, far := units.next(), units.next()
	require.NoError(t, a.AddUnit(near, geometry.NewVector(10, 10)))
	require.NoError(t, a.AddUnit(far, geometry.NewVector(13, 10)))

	got, ok := a.NearestUnit(geometry.NewVector(11, 10), 5)
	require.True(t, ok)
	assert.Equal(t, near, got)

	_, ok = a.NearestUnit(geometry.NewVector(40, 40), 2)
	assert.False(t, ok)
}
