package swarm

import (
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
)

// BehaviorState is the per-unit steering memory. It is stored as an ark
// component, so it is created and destroyed together with its entity.
type BehaviorState struct {
	WanderDirection geometry.Vector2D

	// Friends and NextRefresh are only used in CachedFriends mode.
	Friends     []ecs.Entity
	NextRefresh time.Duration

	// Read-outs of the last tick, for debug draw and telemetry.
	LastWander    geometry.Vector2D
	LastCohesion  geometry.Vector2D
	LastAlignment geometry.Vector2D
}

func (s *BehaviorState) hasFriend(e ecs.Entity) bool {
	for _, f := range s.Friends {
		if f == e {
			return true
		}
	}
	return false
}

// StateTable is the component table holding one BehaviorState per unit,
// indexed by the unit's entity handle.
type StateTable struct {
	world  *ecs.World
	states *ecs.Map1[BehaviorState]
	filter *ecs.Filter1[BehaviorState]
}

// NewStateTable registers the BehaviorState component in world.
func NewStateTable(world *ecs.World) *StateTable {
	return &StateTable{
		world:  world,
		states: ecs.NewMap1[BehaviorState](world),
		filter: ecs.NewFilter1[BehaviorState](world),
	}
}

// Spawn creates a unit entity together with a fresh BehaviorState.
func (t *StateTable) Spawn() ecs.Entity {
	return t.states.NewEntity(&BehaviorState{})
}

// Get returns the state of e, or nil when e is dead, zero or not a unit.
func (t *StateTable) Get(e ecs.Entity) *BehaviorState {
	if !t.Alive(e) || !t.states.HasAll(e) {
		return nil
	}
	return t.states.Get(e)
}

// Alive reports whether e is a live entity of the table's world.
func (t *StateTable) Alive(e ecs.Entity) bool {
	if e == (ecs.Entity{}) {
		return false
	}
	return t.world.Alive(e)
}

// Remove destroys the unit and its state. Unknown entities are ignored.
func (t *StateTable) Remove(e ecs.Entity) {
	if !t.Alive(e) {
		return
	}
	t.world.RemoveEntity(e)
}

// Entities appends every unit to dst, in storage order.
func (t *StateTable) Entities(dst []ecs.Entity) []ecs.Entity {
	query := t.filter.Query()
	for query.Next() {
		dst = append(dst, query.Entity())
	}
	return dst
}

// Len counts the units.
func (t *StateTable) Len() int {
	n := 0
	query := t.filter.Query()
	for query.Next() {
		n++
	}
	return n
}
