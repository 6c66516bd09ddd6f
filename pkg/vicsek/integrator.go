package vicsek

import "github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"

// Integrate advances every agent by position += velocity·dt and wraps the
// result back into the periodic domain, so positions are in [0, L)² afterwards
// whatever the sign or size of the drift.
func Integrate(s *State, dt float64, d geometry.Domain, ops VectorMath) {
	ops.Axpy(dt, s.Vx, s.X)
	ops.Axpy(dt, s.Vy, s.Y)
	for i := range s.X {
		s.X[i] = d.WrapCoord(s.X[i])
		s.Y[i] = d.WrapCoord(s.Y[i])
	}
}
