// Package vicsek implements the Vicsek alignment model: self-propelled point
// agents on a periodic square that move at constant speed, re-align to the
// circular mean heading of their neighbours and add bounded uniform noise.
//
// The per-step neighbour-alignment kernel is the only O(N²) computation. It is
// exposed behind the Averager interface with interchangeable backends that
// produce numerically equivalent mean headings.
package vicsek

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
)

// Reference constants of the model.
const (
	DefaultAgents     = 5000
	DefaultSpeed      = 1.0
	DefaultNoise      = 0.5
	DefaultDomainSize = 10.0
	DefaultRadius     = 1.0
	DefaultTimeStep   = 0.2
	DefaultSteps      = 200
	DefaultSeed       = 1
)

// ErrInvalidParams wraps every validation failure of Params.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params holds the physical constants of one run.
type Params struct {
	Agents     int     // N
	Speed      float64 // V0
	Noise      float64 // η
	DomainSize float64 // L
	Radius     float64 // R
	TimeStep   float64 // Δt
	Steps      int     // NT
	Seed       uint64

	// PeriodicNeighbors makes the kernel use minimum-image distances.
	// The default (false) keeps plain Euclidean distance, so agents near
	// opposite edges do not interact.
	PeriodicNeighbors bool
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		Agents:     DefaultAgents,
		Speed:      DefaultSpeed,
		Noise:      DefaultNoise,
		DomainSize: DefaultDomainSize,
		Radius:     DefaultRadius,
		TimeStep:   DefaultTimeStep,
		Steps:      DefaultSteps,
		Seed:       DefaultSeed,
	}
}

// Validate rejects parameter sets that would produce NaN or meaningless runs.
func (p Params) Validate() error {
	if p.Agents <= 0 {
		return fmt.Errorf("%w: agent count %d must be positive", ErrInvalidParams, p.Agents)
	}
	if p.Steps < 0 {
		return fmt.Errorf("%w: step count %d must not be negative", ErrInvalidParams, p.Steps)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"speed", p.Speed},
		{"domain size", p.DomainSize},
		{"radius", p.Radius},
		{"time step", p.TimeStep},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s %v must be a positive finite number", ErrInvalidParams, f.name, f.value)
		}
	}
	if !(p.Noise >= 0) || math.IsInf(p.Noise, 0) {
		return fmt.Errorf("%w: noise %v must be a non-negative finite number", ErrInvalidParams, p.Noise)
	}
	return nil
}

// Domain returns the periodic square of side DomainSize.
func (p Params) Domain() geometry.Domain {
	return geometry.Domain{Size: p.DomainSize}
}

// Neighborhood returns the neighbour test the kernel uses for these parameters.
func (p Params) Neighborhood() Neighborhood {
	return Neighborhood{
		RadiusSq: p.Radius * p.Radius,
		Domain:   p.Domain(),
		Periodic: p.PeriodicNeighbors,
	}
}
