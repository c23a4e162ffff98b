package simulation

import (
	"time"

	"github.com/cdietze/zombie-toolkit/internal/telemetry"
	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"github.com/mlange-42/ark/ecs"
)

// Unit is the render view of one unit after a step.
type Unit struct {
	Entity ecs.Entity
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D

	// steering read-outs of the last tick
	Wander    geometry.Vector2D
	Cohesion  geometry.Vector2D
	Alignment geometry.Vector2D
	Friends   int
}

// Heading is the direction of travel in radians, 0 when at rest.
func (u *Unit) Heading() float64 {
	if u.Vel.LenSqr() < geometry.Epsilon {
		return 0
	}
	return u.Vel.Angle()
}

// Snapshot is an immutable copy of the world handed to the viewer.
type Snapshot struct {
	Tick     uint64
	Elapsed  time.Duration
	Bounds   geometry.AABB
	Settings swarm.Settings
	Stats    swarm.TickStats
	Units    []Unit
}

// Sample condenses the snapshot for telemetry.
func (s *Snapshot) Sample() telemetry.Sample {
	vels := make([]geometry.Vector2D, len(s.Units))
	for i := range s.Units {
		vels[i] = s.Units[i].Vel
	}
	return telemetry.Summarize(s.Tick, s.Elapsed, vels, s.Stats)
}
