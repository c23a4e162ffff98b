// Package telemetry condenses simulation ticks into flock statistics and
// logs them as CSV.
package telemetry

import (
	"math"
	"sort"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"gonum.org/v1/gonum/stat"
)

// movingSpeed is the speed below which a unit has no meaningful heading.
const movingSpeed = 1e-6

// Sample is the flock state after one tick.
type Sample struct {
	RunID     string  `csv:"run_id"`
	Tick      uint64  `csv:"tick"`
	SimTimeMs int64   `csv:"sim_time_ms"`
	Units     int     `csv:"units"`

	MeanSpeed    float64 `csv:"mean_speed"`
	SpeedStdDev  float64 `csv:"speed_std"`
	SpeedP90     float64 `csv:"speed_p90"`
	Polarization float64 `csv:"polarization"` // |mean heading|, 1 when all units move the same way

	MeanNeighbors float64 `csv:"mean_neighbors"`
	Skipped       int     `csv:"skipped"`
}

// Summarize computes a Sample from the unit velocities and the controller
// counters of the same tick.
func Summarize(tick uint64, elapsed time.Duration, velocities []geometry.Vector2D, ts swarm.TickStats) Sample {
	s := Sample{
		Tick:          tick,
		SimTimeMs:     elapsed.Milliseconds(),
		Units:         len(velocities),
		MeanNeighbors: ts.MeanNeighbors(),
		Skipped:       ts.Skipped,
	}
	if len(velocities) == 0 {
		return s
	}

	speeds := make([]float64, len(velocities))
	var heading geometry.Vector2D
	moving := 0
	for i, v := range velocities {
		speeds[i] = v.Len()
		if speeds[i] > movingSpeed {
			heading = heading.Add(v.Mul(1 / speeds[i]))
			moving++
		}
	}

	s.MeanSpeed, s.SpeedStdDev = stat.MeanStdDev(speeds, nil)
	if len(speeds) < 2 {
		s.SpeedStdDev = 0
	}
	sort.Float64s(speeds)
	s.SpeedP90 = stat.Quantile(0.9, stat.Empirical, speeds, nil)
	if moving > 0 {
		s.Polarization = heading.Mul(1 / float64(moving)).Len()
	}
	if math.IsNaN(s.MeanSpeed) {
		s.MeanSpeed = 0
	}
	return s
}
