package vicsek

import (
	"fmt"
	"io"
)

// Simulation is the stepping driver. It owns the state and runs, per step:
// integrate positions and wrap, compute mean headings, draw noise, update
// headings and velocities. The same code serves every backend; a distributed
// worker calls Advance with the range it owns.
type Simulation struct {
	params   Params
	state    *State
	averager Averager
	noise    *Noise
	ops      VectorMath
	draws    []float64
	step     int
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithAverager selects the kernel backend. Sequential is the default.
func WithAverager(a Averager) Option {
	return func(s *Simulation) { s.averager = a }
}

// WithVectorMath replaces the Blas vector primitives.
func WithVectorMath(ops VectorMath) Option {
	return func(s *Simulation) { s.ops = ops }
}

// NewSimulation wraps state, which must hold p.Agents agents. The noise
// source is seeded from p.Seed.
func NewSimulation(p Params, state *State, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if state == nil || state.Len() != p.Agents {
		return nil, fmt.Errorf("%w: state does not hold %d agents", ErrInvalidParams, p.Agents)
	}
	s := &Simulation{
		params:   p,
		state:    state,
		averager: Sequential{},
		noise:    NewNoise(p.Seed),
		ops:      Blas{},
		draws:    make([]float64, p.Agents),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Params returns the run parameters.
func (s *Simulation) Params() Params { return s.params }

// State returns the live state. It is mutated by every step.
func (s *Simulation) State() *State { return s.state }

// Averager returns the kernel backend in use.
func (s *Simulation) Averager() Averager { return s.averager }

// Noise returns the noise source, e.g. to reseed it.
func (s *Simulation) Noise() *Noise { return s.noise }

// StepCount returns the number of completed steps.
func (s *Simulation) StepCount() int { return s.step }

// Step advances every agent by one time step.
func (s *Simulation) Step() {
	s.Advance(Range{Start: 0, End: s.state.Len()})
}

// Advance runs one time step in which only the agents in r get new headings
// and velocities. Positions of all agents are integrated, and N noise values
// are drawn whatever r is, so that every owner of a partition consumes the
// noise stream exactly like a single-process run.
func (s *Simulation) Advance(r Range) {
	Integrate(s.state, s.params.TimeStep, s.params.Domain(), s.ops)
	s.averager.MeanHeadings(s.state, s.params.Neighborhood(), r.Start, r.End)
	s.noise.Fill(s.draws)
	UpdateHeadings(s.state, s.draws, s.params.Noise, s.params.Speed, r.Start, r.End)
	s.step++
}

// Close releases backend resources such as the parallel worker pool.
func (s *Simulation) Close() error {
	if c, ok := s.averager.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
