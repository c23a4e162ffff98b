// Package physics hosts the swarm in a chipmunk rigid-body space: a walled
// rectangle of circular unit bodies keyed by their ECS entity.
package physics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/jakecoffman/cp"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

var (
	// ErrOutOfBounds is returned when a unit would be placed outside the walls.
	ErrOutOfBounds = errors.New("position outside the arena")
	// ErrDuplicateUnit is returned when an entity already owns a body.
	ErrDuplicateUnit = errors.New("entity already has a body")
)

// Config describes the arena and the bodies living in it.
type Config struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	UnitRadius float64 `json:"unitRadius"`
	Density    float64 `json:"density"`
	// Damping is the fraction of velocity a body keeps after one second.
	Damping    float64 `json:"damping"`
	Elasticity float64 `json:"elasticity"`
	Friction   float64 `json:"friction"`
	Iterations uint    `json:"iterations"`
}

// DefaultConfig is a 64x48 arena of 0.4 radius units.
func DefaultConfig() Config {
	return Config{
		Width:      64,
		Height:     48,
		UnitRadius: 0.4,
		Density:    1,
		Damping:    0.6,
		Elasticity: 0.3,
		Friction:   0.4,
		Iterations: 10,
	}
}

// Validate checks that units fit the arena and the solver can run.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("arena size must be positive, got %vx%v", c.Width, c.Height)
	case c.UnitRadius <= 0 || 2*c.UnitRadius >= math.Min(c.Width, c.Height):
		return fmt.Errorf("unit radius %v does not fit a %vx%v arena", c.UnitRadius, c.Width, c.Height)
	case c.Density <= 0:
		return fmt.Errorf("density must be positive, got %v", c.Density)
	case c.Damping <= 0 || c.Damping > 1:
		return fmt.Errorf("damping must be in (0, 1], got %v", c.Damping)
	case c.Iterations == 0:
		return errors.New("solver iterations must be non-zero")
	}
	return nil
}

// Arena owns the chipmunk space. It implements the swarm Physics port.
// Like the space it wraps, it is not safe for concurrent use.
type Arena struct {
	cfg    Config
	space  *cp.Space
	bodies map[ecs.Entity]*cp.Body
	walls  []*cp.Shape
	bounds geometry.AABB
	steps  uint64
	log    *zap.Logger
}

// NewArena builds an empty walled space.
func NewArena(cfg Config, log *zap.Logger) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arena config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	space := cp.NewSpace()
	space.Iterations = cfg.Iterations
	space.SetGravity(cp.Vector{})
	space.SetDamping(cfg.Damping)

	a := &Arena{
		cfg:    cfg,
		space:  space,
		bodies: make(map[ecs.Entity]*cp.Body),
		bounds: geometry.AABB{Max: geometry.NewVector(cfg.Width, cfg.Height)},
		log:    log,
	}
	a.buildWalls()
	log.Debug("arena ready",
		zap.Float64("width", cfg.Width),
		zap.Float64("height", cfg.Height),
		zap.Int("walls", len(a.walls)))
	return a, nil
}

func (a *Arena) buildWalls() {
	w, h := a.cfg.Width, a.cfg.Height
	corners := []cp.Vector{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	for i := range corners {
		seg := cp.NewSegment(a.space.StaticBody, corners[i], corners[(i+1)%len(corners)], 0)
		seg.SetElasticity(1)
		seg.SetFriction(a.cfg.Friction)
		a.walls = append(a.walls, a.space.AddShape(seg))
	}
}

// Config returns the arena configuration.
func (a *Arena) Config() Config { return a.cfg }

// Bounds is the rectangle enclosed by the walls.
func (a *Arena) Bounds() geometry.AABB { return a.bounds }

// Len counts the unit bodies.
func (a *Arena) Len() int { return len(a.bodies) }

// Steps counts the completed Step calls.
func (a *Arena) Steps() uint64 { return a.steps }

// AddUnit creates a dynamic circle body for e at pos.
func (a *Arena) AddUnit(e ecs.Entity, pos geometry.Vector2D) error {
	if _, ok := a.bodies[e]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateUnit, e)
	}
	r := a.cfg.UnitRadius
	inner := geometry.AABB{
		Min: a.bounds.Min.Add(geometry.NewVector(r, r)),
		Max: a.bounds.Max.Sub(geometry.NewVector(r, r)),
	}
	if !pos.IsFinite() || !inner.Contains(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}

	mass := a.cfg.Density * math.Pi * r * r
	body := a.space.AddBody(cp.NewBody(mass, cp.MomentForCircle(mass, 0, r, cp.Vector{})))
	body.SetPosition(toCP(pos))
	body.UserData = e

	shape := a.space.AddShape(cp.NewCircle(body, r, cp.Vector{}))
	shape.SetElasticity(a.cfg.Elasticity)
	shape.SetFriction(a.cfg.Friction)

	a.bodies[e] = body
	return nil
}

// RemoveUnit deletes the body of e and its shapes. Unknown entities are ignored.
func (a *Arena) RemoveUnit(e ecs.Entity) {
	body, ok := a.bodies[e]
	if !ok {
		return
	}
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) { shapes = append(shapes, s) })
	for _, s := range shapes {
		a.space.RemoveShape(s)
	}
	a.space.RemoveBody(body)
	delete(a.bodies, e)
}

// Step advances the simulation by dt.
func (a *Arena) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	a.space.Step(dt.Seconds())
	a.steps++
}

// Kick applies impulse to the center of mass of e. It reports whether e has a body.
func (a *Arena) Kick(e ecs.Entity, impulse geometry.Vector2D) bool {
	body, ok := a.bodies[e]
	if !ok || !impulse.IsFinite() {
		return false
	}
	body.ApplyImpulseAtWorldPoint(toCP(impulse), centerOf(body))
	return true
}

// NearestUnit finds the unit closest to p within maxDist.
func (a *Arena) NearestUnit(p geometry.Vector2D, maxDist float64) (ecs.Entity, bool) {
	var (
		best   ecs.Entity
		bestSq = maxDist * maxDist
		found  bool
	)
	a.QueryRegion(geometry.NewSquare(p, maxDist), func(e ecs.Entity) {
		body, ok := a.bodies[e]
		if !ok {
			return
		}
		d := fromCP(centerOf(body)).DistanceSquaredTo(p)
		if d <= bestSq {
			best, bestSq, found = e, d, true
		}
	})
	return best, found
}

// Position implements swarm.Physics.
func (a *Arena) Position(e ecs.Entity) (geometry.Vector2D, bool) {
	body, ok := a.bodies[e]
	if !ok {
		return geometry.Zero, false
	}
	return fromCP(centerOf(body)), true
}

// Velocity implements swarm.Physics.
func (a *Arena) Velocity(e ecs.Entity) (geometry.Vector2D, bool) {
	body, ok := a.bodies[e]
	if !ok {
		return geometry.Zero, false
	}
	return fromCP(body.Velocity()), true
}

// IsDynamic implements swarm.Physics.
func (a *Arena) IsDynamic(e ecs.Entity) bool {
	body, ok := a.bodies[e]
	return ok && body.GetType() == cp.BODY_DYNAMIC
}

// QueryRegion implements swarm.Physics on top of the space's bounding box
// query. Wall segments are reported as the zero entity.
func (a *Arena) QueryRegion(box geometry.AABB, visit func(e ecs.Entity)) {
	bb := cp.BB{L: box.Min.X, B: box.Min.Y, R: box.Max.X, T: box.Max.Y}
	a.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		e, ok := shape.Body().UserData.(ecs.Entity)
		if !ok {
			visit(ecs.Entity{})
			return
		}
		visit(e)
	}, nil)
}

// ApplyImpulse implements swarm.Physics.
func (a *Arena) ApplyImpulse(e ecs.Entity, impulse, at geometry.Vector2D) {
	body, ok := a.bodies[e]
	if !ok || !impulse.IsFinite() || !at.IsFinite() {
		return
	}
	body.ApplyImpulseAtWorldPoint(toCP(impulse), toCP(at))
}

func centerOf(body *cp.Body) cp.Vector {
	return body.LocalToWorld(body.CenterOfGravity())
}

func toCP(v geometry.Vector2D) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Y}
}

func fromCP(v cp.Vector) geometry.Vector2D {
	return geometry.Vector2D{X: v.X, Y: v.Y}
}
