package swarm

import (
	"math"
	"math/rand/v2"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
)

// Wander blends a fresh random perturbation into the previous wander
// direction and returns the new direction, which is also the wander force.
// The result never exceeds power in magnitude.
func Wander(dir geometry.Vector2D, rng *rand.Rand, power, jitter float64) geometry.Vector2D {
	perturbation := geometry.NewVectorPolar(power, rng.Float64()*2*math.Pi)
	if !dir.IsFinite() {
		dir = geometry.Zero
	}
	next := dir.Mul(1 - jitter).Add(perturbation.Mul(jitter))
	return next.ClampLen(power)
}

// Cohesion pulls toward the neighbors within radius. Each neighbor adds the
// unit vector toward it scaled by 0.5*power*(radius-d)/radius. The sum is
// clamped to power.
func Cohesion(self geometry.Vector2D, neighbors []Neighbor, radius, power float64) geometry.Vector2D {
	if radius <= 0 || power <= 0 {
		return geometry.Zero
	}
	radiusSq := radius * radius
	var sum geometry.Vector2D
	for _, n := range neighbors {
		if n.DistSq > radiusSq {
			continue
		}
		d := math.Sqrt(n.DistSq)
		// on top of us: no direction to pull in
		if d < geometry.Epsilon {
			continue
		}
		toward := n.Position.Sub(self).Mul(1 / d)
		sum = sum.Add(toward.Mul(falloff(d, radius, power)))
	}
	return sum.ClampLen(power)
}

// Alignment steers toward the weighted heading of the neighbors within
// radius. Each neighbor adds its velocity scaled by 0.5*power*(radius-d)/radius.
// The sum is clamped to power.
func Alignment(neighbors []Neighbor, radius, power float64) geometry.Vector2D {
	if radius <= 0 || power <= 0 {
		return geometry.Zero
	}
	radiusSq := radius * radius
	var sum geometry.Vector2D
	for _, n := range neighbors {
		if n.DistSq > radiusSq || !n.Velocity.IsFinite() {
			continue
		}
		d := math.Sqrt(n.DistSq)
		sum = sum.Add(n.Velocity.Mul(falloff(d, radius, power)))
	}
	return sum.ClampLen(power)
}

// falloff is the linear weight shared by cohesion and alignment.
func falloff(d, radius, power float64) float64 {
	return 0.5 * power * (radius - d) / radius
}
