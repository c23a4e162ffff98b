// Package swarm steers a crowd of physics bodies with three local rules:
// a smoothed random wander, cohesion toward neighbors and alignment with
// their velocities. The controller reads the world through the Physics port
// and answers with one impulse per unit and tick.
package swarm

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
)

// Impulse is the steering decision for one unit in one tick.
type Impulse struct {
	Entity    ecs.Entity
	Vector    geometry.Vector2D
	At        geometry.Vector2D
	Wander    geometry.Vector2D
	Cohere    geometry.Vector2D
	Align     geometry.Vector2D
	Neighbors int // neighbors handed to cohesion and alignment
}

// TickStats summarizes the last Tick.
type TickStats struct {
	Steered   int // units that received an impulse
	Skipped   int // stateless or stale units
	Neighbors int // neighbors seen, summed over steered units
}

// MeanNeighbors is the average neighborhood size of a steered unit.
func (s TickStats) MeanNeighbors() float64 {
	if s.Steered == 0 {
		return 0
	}
	return float64(s.Neighbors) / float64(s.Steered)
}

// Controller runs the steering rules once per tick for every unit.
// It is not safe for concurrent use: the simulation driver owns it.
type Controller struct {
	phys     Physics
	states   *StateTable
	rng      *rand.Rand
	settings Settings

	neighbors  []Neighbor
	candidates []Neighbor
	pending    []Impulse
	stats      TickStats
}

// NewController validates settings and wires the controller to its collaborators.
func NewController(phys Physics, states *StateTable, rng *rand.Rand, settings Settings) (*Controller, error) {
	if phys == nil || states == nil || rng == nil {
		return nil, errors.New("swarm: controller needs physics, states and a random source")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		phys:     phys,
		states:   states,
		rng:      rng,
		settings: settings,
	}, nil
}

// Settings returns the active settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// SetSettings swaps the steering constants between ticks.
// The neighbor mode is fixed at construction and cannot change.
func (c *Controller) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.NeighborMode != c.settings.NeighborMode {
		return fmt.Errorf("%w: neighbor mode is fixed to %q", ErrInvalidSettings, c.settings.NeighborMode)
	}
	c.settings = s
	return nil
}

// Stats returns the counters of the last Tick.
func (c *Controller) Stats() TickStats {
	return c.stats
}

// Tick steers every entity, then applies all impulses. No unit sees a
// velocity changed by this tick while the others are still deciding.
// The returned slice is reused by the next call.
func (c *Controller) Tick(entities []ecs.Entity, elapsed time.Duration) []Impulse {
	c.pending = c.pending[:0]
	c.stats = TickStats{}

	for _, e := range entities {
		imp, ok := c.steer(e, elapsed)
		if !ok {
			c.stats.Skipped++
			continue
		}
		c.stats.Steered++
		c.stats.Neighbors += imp.Neighbors
		c.pending = append(c.pending, imp)
	}

	for _, imp := range c.pending {
		c.phys.ApplyImpulse(imp.Entity, imp.Vector, imp.At)
	}
	return c.pending
}

// steer evaluates wander, cohesion and alignment for one unit, in that order.
func (c *Controller) steer(e ecs.Entity, elapsed time.Duration) (Impulse, bool) {
	state := c.states.Get(e)
	if state == nil || !c.phys.IsDynamic(e) {
		return Impulse{}, false
	}
	pos, ok := c.phys.Position(e)
	if !ok || !pos.IsFinite() {
		return Impulse{}, false
	}

	s := c.settings
	state.WanderDirection = Wander(state.WanderDirection, c.rng, s.WanderPower, s.WanderJitter)

	c.neighbors = c.neighbors[:0]
	switch s.NeighborMode {
	case CachedFriends:
		c.refreshFriends(e, pos, state, elapsed)
		c.neighbors = c.friendNeighbors(e, pos, state, c.neighbors)
	default:
		c.neighbors = Neighbors(c.phys, e, pos, s.QueryRadius(), c.neighbors)
	}

	cohere := Cohesion(pos, c.neighbors, s.CohesionRadius, s.CohesionPower)
	align := Alignment(c.neighbors, s.AlignmentRadius, s.AlignmentPower)

	state.LastWander = state.WanderDirection
	state.LastCohesion = cohere
	state.LastAlignment = align

	return Impulse{
		Entity:    e,
		Vector:    state.WanderDirection.Add(cohere).Add(align),
		At:        pos,
		Wander:    state.WanderDirection,
		Cohere:    cohere,
		Align:     align,
		Neighbors: len(c.neighbors),
	}, true
}
