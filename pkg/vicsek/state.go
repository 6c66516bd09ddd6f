package vicsek

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
	"gonum.org/v1/gonum/stat/distuv"
)

// initStream separates the initial-condition stream from the noise stream
// so both can be derived from one seed.
const initStream = 0x9e3779b97f4a7c15

// State is the structure-of-arrays snapshot of all agents. Index = agent
// identity, stable for the whole run; every slice has the same length.
//
// Mean is the kernel's output buffer. The kernel reads X, Y and Theta and
// writes only Mean, so no agent ever sees a neighbour's new heading within
// the same step.
type State struct {
	X, Y   []float64
	Theta  []float64
	Vx, Vy []float64
	Mean   []float64
}

// NewState allocates a zeroed state for n agents.
func NewState(n int) *State {
	return &State{
		X:     make([]float64, n),
		Y:     make([]float64, n),
		Theta: make([]float64, n),
		Vx:    make([]float64, n),
		Vy:    make([]float64, n),
		Mean:  make([]float64, n),
	}
}

// NewRandomState places p.Agents agents uniformly in the domain with uniform
// headings in (-Pi, Pi] and speed p.Speed. The same seed always yields the
// same state.
func NewRandomState(p Params) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := NewState(p.Agents)
	u := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(p.Seed, initStream)}
	for i := range s.Theta {
		s.SetHeading(i, math.Pi-2*math.Pi*u.Rand(), p.Speed)
	}
	d := p.Domain()
	for i := range s.X {
		s.X[i] = d.WrapCoord(u.Rand() * p.DomainSize)
		s.Y[i] = d.WrapCoord(u.Rand() * p.DomainSize)
	}
	return s, nil
}

// Len returns the number of agents.
func (s *State) Len() int {
	return len(s.Theta)
}

// SetHeading sets agent i's heading and derives its velocity at speed v0.
func (s *State) SetHeading(i int, theta, v0 float64) {
	s.Theta[i] = theta
	s.Vx[i] = v0 * math.Cos(theta)
	s.Vy[i] = v0 * math.Sin(theta)
}

// Position returns agent i's position.
func (s *State) Position(i int) geometry.Vector2D {
	return geometry.Vector2D{X: s.X[i], Y: s.Y[i]}
}

// Velocity returns agent i's velocity.
func (s *State) Velocity(i int) geometry.Vector2D {
	return geometry.Vector2D{X: s.Vx[i], Y: s.Vy[i]}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := NewState(s.Len())
	c.CopyFrom(s)
	return c
}

// CopyFrom overwrites s with o. Both states must hold the same agent count.
func (s *State) CopyFrom(o *State) {
	copy(s.X, o.X)
	copy(s.Y, o.Y)
	copy(s.Theta, o.Theta)
	copy(s.Vx, o.Vx)
	copy(s.Vy, o.Vy)
	copy(s.Mean, o.Mean)
}

// Validate checks the structural and physical invariants of the state:
// equal slice lengths, every position inside the domain and |v| == V0
// within tol.
func (s *State) Validate(p Params, tol float64) error {
	n := s.Len()
	for name, sl := range map[string][]float64{"x": s.X, "y": s.Y, "vx": s.Vx, "vy": s.Vy, "mean": s.Mean} {
		if len(sl) != n {
			return fmt.Errorf("state field %s has %d entries, want %d", name, len(sl), n)
		}
	}
	d := p.Domain()
	for i := 0; i < n; i++ {
		if !d.Contains(s.Position(i)) {
			return fmt.Errorf("agent %d at %s is outside the domain", i, s.Position(i))
		}
		if speed := s.Velocity(i).Len(); math.Abs(speed-p.Speed) > tol {
			return fmt.Errorf("agent %d has speed %v, want %v", i, speed, p.Speed)
		}
	}
	return nil
}
