// Package telemetry observes a running simulation: order parameter, per-step
// CSV records, the per-agent diagnostic stream and the timing report. None of
// it feeds back into the state.
package telemetry

import (
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
	"gonum.org/v1/gonum/floats"
)

// OrderParameter returns φ = |Σ v_i| / (N·v0), which is 1 for a fully aligned
// flock and close to 0 for random headings. An empty state yields 0.
func OrderParameter(s *vicsek.State, v0 float64) float64 {
	n := s.Len()
	if n == 0 || v0 == 0 {
		return 0
	}
	sum := geometry.NewVector(floats.Sum(s.Vx), floats.Sum(s.Vy))
	return sum.Len() / (float64(n) * v0)
}

// MeanHeading returns the circular mean of all headings, the direction of
// travel of the flock as a whole.
func MeanHeading(s *vicsek.State) float64 {
	return geometry.CircularMeanOf(s.Theta)
}
