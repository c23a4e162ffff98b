package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cdietze/zombie-toolkit/internal/telemetry"
	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/cdietze/zombie-toolkit/pkg/physics"
	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

const (
	// maxSpawnAttempts bounds the rejection sampling of one crowd position.
	maxSpawnAttempts = 32
	// maxCatchUpSteps bounds the fixed steps run for one Advance call.
	maxCatchUpSteps = 5
)

// Driver owns one simulation: the entity world, the behavior states, the
// physics arena and the swarm controller. It advances them in fixed steps.
// A Driver is not safe for concurrent use; WorldActor serializes access.
type Driver struct {
	cfg    *Config
	states *swarm.StateTable
	arena  *physics.Arena
	ctrl   *swarm.Controller
	rng    *rand.Rand
	log    *zap.Logger

	entities []ecs.Entity
	impulses []swarm.Impulse
	ticks    uint64
	elapsed  time.Duration
	pending  time.Duration // wall time not yet simulated
}

// NewDriver builds an empty simulation from cfg. Units are added with
// Spawn or SpawnCrowd.
func NewDriver(cfg *Config, log *zap.Logger) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	arena, err := physics.NewArena(cfg.Arena, log.Named("arena"))
	if err != nil {
		return nil, err
	}
	states := swarm.NewStateTable(ecs.NewWorld())
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5deece66d))
	ctrl, err := swarm.NewController(arena, states, rng, cfg.SwarmSettings())
	if err != nil {
		return nil, err
	}

	return &Driver{
		cfg:    cfg,
		states: states,
		arena:  arena,
		ctrl:   ctrl,
		rng:    rng,
		log:    log,
	}, nil
}

// Spawn adds one unit at pos. The entity and its behavior state are
// created together; the body follows.
func (d *Driver) Spawn(pos geometry.Vector2D) (ecs.Entity, error) {
	e := d.states.Spawn()
	if err := d.arena.AddUnit(e, pos); err != nil {
		d.states.Remove(e)
		return ecs.Entity{}, err
	}
	return e, nil
}

// Remove deletes a unit from physics and from the entity world.
func (d *Driver) Remove(e ecs.Entity) {
	d.arena.RemoveUnit(e)
	d.states.Remove(e)
}

// SpawnCrowd places n units at random in a disc of radius sqrt(n) around
// center and gives each a random kick of at most KickImpulse. Positions that
// fall outside the walls are redrawn. It returns how many units were placed.
func (d *Driver) SpawnCrowd(n int, center geometry.Vector2D) (int, error) {
	radius := math.Sqrt(float64(n))
	placed := 0
	for i := 0; i < n; i++ {
		var (
			e   ecs.Entity
			err error
		)
		for attempt := 0; attempt < maxSpawnAttempts; attempt++ {
			r := radius * math.Sqrt(d.rng.Float64())
			pos := center.Add(geometry.NewVectorPolar(r, d.rng.Float64()*2*math.Pi))
			if e, err = d.Spawn(pos); err == nil {
				break
			}
		}
		if err != nil {
			return placed, fmt.Errorf("spawning unit %d of %d: %w", i+1, n, err)
		}
		kick := geometry.NewVectorPolar(d.rng.Float64()*d.cfg.KickImpulse, d.rng.Float64()*2*math.Pi)
		d.arena.Kick(e, kick)
		placed++
	}
	d.log.Debug("crowd spawned", zap.Int("units", placed), zap.Stringer("center", center))
	return placed, nil
}

// Step runs the controller over every unit, then advances physics by one
// fixed step.
func (d *Driver) Step() {
	step := d.cfg.Step()
	d.entities = d.states.Entities(d.entities[:0])
	d.impulses = d.ctrl.Tick(d.entities, step)
	d.arena.Step(step)
	d.ticks++
	d.elapsed += step

	if skipped := d.ctrl.Stats().Skipped; skipped > 0 {
		d.log.Debug("stale units skipped", zap.Uint64("tick", d.ticks), zap.Int("skipped", skipped))
	}
}

// Advance banks frame time and runs as many fixed steps as it covers, at
// most maxCatchUpSteps. Time beyond that is dropped so a stalled viewer
// does not trigger a burst of steps. It returns the number of steps run.
func (d *Driver) Advance(frame time.Duration) int {
	if frame <= 0 {
		return 0
	}
	step := d.cfg.Step()
	d.pending += frame
	n := 0
	for d.pending >= step && n < maxCatchUpSteps {
		d.Step()
		d.pending -= step
		n++
	}
	if d.pending >= step {
		d.pending = 0
	}
	return n
}

// Kick applies impulse to e.
func (d *Driver) Kick(e ecs.Entity, impulse geometry.Vector2D) bool {
	return d.arena.Kick(e, impulse)
}

// KickNearest kicks the unit closest to p, if one lies within reach.
// The impulse points along -y, up on screen, with magnitude KickImpulse.
func (d *Driver) KickNearest(p geometry.Vector2D, reach float64) (ecs.Entity, bool) {
	e, ok := d.arena.NearestUnit(p, reach)
	if !ok {
		return ecs.Entity{}, false
	}
	return e, d.arena.Kick(e, geometry.NewVector(0, -d.cfg.KickImpulse))
}

// Settings returns the active controller settings.
func (d *Driver) Settings() swarm.Settings { return d.ctrl.Settings() }

// SetSettings retunes the controller between steps.
func (d *Driver) SetSettings(s swarm.Settings) error { return d.ctrl.SetSettings(s) }

// Ticks counts completed steps.
func (d *Driver) Ticks() uint64 { return d.ticks }

// Len counts the live units.
func (d *Driver) Len() int { return d.arena.Len() }

// Arena exposes the physics adapter.
func (d *Driver) Arena() *physics.Arena { return d.arena }

// Snapshot copies the state of every unit into a new Snapshot.
func (d *Driver) Snapshot() *Snapshot {
	s := &Snapshot{
		Tick:     d.ticks,
		Elapsed:  d.elapsed,
		Bounds:   d.arena.Bounds(),
		Settings: d.ctrl.Settings(),
		Stats:    d.ctrl.Stats(),
		Units:    make([]Unit, 0, len(d.entities)),
	}
	d.entities = d.states.Entities(d.entities[:0])
	for _, e := range d.entities {
		pos, ok := d.arena.Position(e)
		if !ok {
			continue
		}
		vel, _ := d.arena.Velocity(e)
		u := Unit{Entity: e, Pos: pos, Vel: vel}
		if st := d.states.Get(e); st != nil {
			u.Wander = st.LastWander
			u.Cohesion = st.LastCohesion
			u.Alignment = st.LastAlignment
			u.Friends = len(st.Friends)
		}
		s.Units = append(s.Units, u)
	}
	return s
}

// Sample summarizes the last step for telemetry. Units are visited in
// storage order so a seed always yields the same sums.
func (d *Driver) Sample() telemetry.Sample {
	d.entities = d.states.Entities(d.entities[:0])
	vels := make([]geometry.Vector2D, 0, len(d.entities))
	for _, e := range d.entities {
		if vel, ok := d.arena.Velocity(e); ok {
			vels = append(vels, vel)
		}
	}
	return telemetry.Summarize(d.ticks, d.elapsed, vels, d.ctrl.Stats())
}
