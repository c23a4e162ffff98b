package swarm

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSettings is wrapped by every error returned from Settings.Validate.
var ErrInvalidSettings = errors.New("invalid swarm settings")

// NeighborMode selects how cohesion and alignment find their neighbors.
// A controller uses exactly one mode for its whole life.
type NeighborMode string

const (
	// RequeryNeighbors queries the physics broad phase every tick.
	// Flocks react instantly to topology changes.
	RequeryNeighbors NeighborMode = "requery"
	// CachedFriends keeps a small friend list per unit and refreshes it on a
	// randomized countdown. Flocks are laggier and more stable.
	CachedFriends NeighborMode = "cached"
)

// Settings holds the steering constants.
type Settings struct {
	WanderPower  float64 // cap on the wander direction magnitude
	WanderJitter float64 // smoothing weight of the new perturbation, [0, 1]

	CohesionRadius float64
	CohesionPower  float64

	AlignmentRadius float64
	AlignmentPower  float64

	NeighborMode  NeighborMode
	FriendRefresh time.Duration // mean friend list refresh interval (cached mode)
	MaxFriends    int           // friend list bound (cached mode)
}

// DefaultSettings is the zombie crowd tuning:
// one friend radius of 10 world units and 0.05 for every power.
func DefaultSettings() Settings {
	return Settings{
		WanderPower:     0.05,
		WanderJitter:    0.2,
		CohesionRadius:  10,
		CohesionPower:   0.05,
		AlignmentRadius: 10,
		AlignmentPower:  0.05,
		NeighborMode:    RequeryNeighbors,
		FriendRefresh:   time.Second,
		MaxFriends:      8,
	}
}

// Validate checks ranges. The returned error wraps ErrInvalidSettings.
func (s Settings) Validate() error {
	if !positive(s.CohesionRadius) {
		return fmt.Errorf("%w: cohesion radius must be > 0, got %v", ErrInvalidSettings, s.CohesionRadius)
	}
	if !positive(s.AlignmentRadius) {
		return fmt.Errorf("%w: alignment radius must be > 0, got %v", ErrInvalidSettings, s.AlignmentRadius)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"wander power", s.WanderPower},
		{"cohesion power", s.CohesionPower},
		{"alignment power", s.AlignmentPower},
	} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidSettings, p.name, p.value)
		}
	}
	if math.IsNaN(s.WanderJitter) || s.WanderJitter < 0 || s.WanderJitter > 1 {
		return fmt.Errorf("%w: wander jitter must be in [0, 1], got %v", ErrInvalidSettings, s.WanderJitter)
	}

	switch s.NeighborMode {
	case RequeryNeighbors:
	case CachedFriends:
		if s.FriendRefresh <= 0 {
			return fmt.Errorf("%w: friend refresh must be > 0, got %v", ErrInvalidSettings, s.FriendRefresh)
		}
		if s.MaxFriends < 1 {
			return fmt.Errorf("%w: max friends must be >= 1, got %d", ErrInvalidSettings, s.MaxFriends)
		}
	default:
		return fmt.Errorf("%w: unknown neighbor mode %q", ErrInvalidSettings, s.NeighborMode)
	}
	return nil
}

// QueryRadius is the largest radius any generator looks at.
func (s Settings) QueryRadius() float64 {
	return math.Max(s.CohesionRadius, s.AlignmentRadius)
}

// MaxImpulse bounds the magnitude of one combined steering impulse.
func (s Settings) MaxImpulse() float64 {
	return s.WanderPower + s.CohesionPower + s.AlignmentPower
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
