package vicsek

import "github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"

// UpdateHeadings sets, for b in [start, end), θ_b to the perturbed mean
// heading folded into (-Pi, Pi] and the velocity to v0·(cos θ_b, sin θ_b).
// draws holds one uniform value per agent, indexed like the state.
func UpdateHeadings(s *State, draws []float64, eta, v0 float64, start, end int) {
	for b := start; b < end; b++ {
		theta := geometry.NormalizeAngle(Perturb(s.Mean[b], draws[b], eta))
		s.SetHeading(b, theta, v0)
	}
}
