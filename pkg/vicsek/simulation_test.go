package vicsek

import (
	"errors"
	"math"
	"testing"
)

func newSim(t *testing.T, p Params, opts ...Option) *Simulation {
	t.Helper()
	sim, err := NewSimulation(p, randomState(t, p), opts...)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
	tests := []struct {
		name string
		edit func(*Params)
	}{
		{"no agents", func(p *Params) { p.Agents = 0 }},
		{"negative steps", func(p *Params) { p.Steps = -1 }},
		{"zero speed", func(p *Params) { p.Speed = 0 }},
		{"NaN radius", func(p *Params) { p.Radius = math.NaN() }},
		{"infinite domain", func(p *Params) { p.DomainSize = math.Inf(1) }},
		{"negative dt", func(p *Params) { p.TimeStep = -0.1 }},
		{"negative noise", func(p *Params) { p.Noise = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.edit(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() = %v; want ErrInvalidParams", err)
			}
		})
	}
}

func TestNewRandomState(t *testing.T) {
	p := testParams(500)
	s := randomState(t, p)
	if err := s.Validate(p, 1e-12); err != nil {
		t.Fatalf("random state breaks invariants: %v", err)
	}
	for i, th := range s.Theta {
		if th <= -math.Pi || th > math.Pi {
			t.Fatalf("Theta[%d] = %v outside (-Pi, Pi]", i, th)
		}
	}
	again := randomState(t, p)
	for i := range s.X {
		if s.X[i] != again.X[i] || s.Theta[i] != again.Theta[i] {
			t.Fatalf("same seed produced a different agent %d", i)
		}
	}
}

func TestNewSimulation_StateMismatch(t *testing.T) {
	p := testParams(10)
	if _, err := NewSimulation(p, NewState(9)); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("NewSimulation with short state = %v; want ErrInvalidParams", err)
	}
	if _, err := NewSimulation(p, nil); err == nil {
		t.Error("NewSimulation with nil state should fail")
	}
}

func TestSimulation_Invariants(t *testing.T) {
	for _, backend := range []string{BackendSequential, BackendParallel, BackendMasked} {
		t.Run(backend, func(t *testing.T) {
			p := testParams(200)
			p.Noise = 2.5
			a, err := NewAverager(backend, 3, nil)
			if err != nil {
				t.Fatal(err)
			}
			sim := newSim(t, p, WithAverager(a))
			for step := 0; step < 25; step++ {
				sim.Step()
				if err := sim.State().Validate(p, 1e-12); err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
			}
			if sim.StepCount() != 25 {
				t.Errorf("StepCount = %d; want 25", sim.StepCount())
			}
		})
	}
}

func TestIntegrate_WrapsLargeDrift(t *testing.T) {
	p := testParams(64)
	p.Speed = 37 // crosses several domain widths in one step
	p.TimeStep = 1
	s := randomState(t, p)
	// Half of the agents move backwards across the origin.
	for i := 0; i < s.Len(); i += 2 {
		s.SetHeading(i, math.Pi, p.Speed)
	}
	Integrate(s, p.TimeStep, p.Domain(), Blas{})
	if err := s.Validate(p, 1e-9); err != nil {
		t.Fatal(err)
	}
}

func TestSimulation_IsolatedAgentsKeepHeading(t *testing.T) {
	p := DefaultParams()
	p.Agents = 4
	p.Seed = 7
	corners := [][2]float64{{0.5, 0.5}, {9.5, 0.5}, {0.5, 9.5}, {9.5, 9.5}}
	headings := []float64{0.3, -2.0, 2.5, math.Pi}

	s := NewState(4)
	for i, c := range corners {
		s.X[i], s.Y[i] = c[0], c[1]
		s.SetHeading(i, headings[i], p.Speed)
	}
	sim, err := NewSimulation(p, s)
	if err != nil {
		t.Fatal(err)
	}

	draws := make([]float64, 4)
	NewNoise(p.Seed).Fill(draws)

	sim.Step()

	for i := range headings {
		if !angleEquals(s.Mean[i], headings[i], 1e-12) {
			t.Errorf("agent %d: mean heading %v; want its own heading %v", i, s.Mean[i], headings[i])
		}
		want := headings[i] + p.Noise*(draws[i]-0.5)
		if !angleEquals(s.Theta[i], want, 1e-12) {
			t.Errorf("agent %d: heading %v; want %v", i, s.Theta[i], want)
		}
	}
}

func TestSimulation_Deterministic(t *testing.T) {
	p := testParams(150)
	a := newSim(t, p)
	b := newSim(t, p)
	for step := 0; step < 10; step++ {
		a.Step()
		b.Step()
	}
	for i := 0; i < p.Agents; i++ {
		if a.State().Theta[i] != b.State().Theta[i] || a.State().X[i] != b.State().X[i] {
			t.Fatalf("runs diverged at agent %d", i)
		}
	}
}

func TestSimulation_ParallelTracksSequential(t *testing.T) {
	p := testParams(200)
	seq := newSim(t, p)
	par := newSim(t, p, WithAverager(NewParallel(4)))
	for step := 0; step < 3; step++ {
		seq.Step()
		par.Step()
	}
	for i := 0; i < p.Agents; i++ {
		if !angleEquals(seq.State().Theta[i], par.State().Theta[i], 1e-9) {
			t.Fatalf("agent %d heading %v vs %v", i, seq.State().Theta[i], par.State().Theta[i])
		}
	}
}

func TestSimulation_AdvanceRangeConsumesFullNoise(t *testing.T) {
	p := testParams(100)
	full := newSim(t, p)
	part := newSim(t, p)
	full.Step()
	part.Advance(Range{Start: 30, End: 60})
	for i := 30; i < 60; i++ {
		if full.State().Theta[i] != part.State().Theta[i] {
			t.Fatalf("agent %d: owned-range update differs from full step", i)
		}
	}
	// Next draw must line up too.
	a, b := make([]float64, 1), make([]float64, 1)
	full.Noise().Fill(a)
	part.Noise().Fill(b)
	if a[0] != b[0] {
		t.Error("noise streams out of step after a partial advance")
	}
}

func TestNoise_Reseed(t *testing.T) {
	n := NewNoise(3)
	first := make([]float64, 8)
	n.Fill(first)
	for _, u := range first {
		if u < 0 || u >= 1 {
			t.Fatalf("draw %v outside [0, 1)", u)
		}
	}
	n.Reseed(3)
	again := make([]float64, 8)
	n.Fill(again)
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("draw %d differs after reseed", i)
		}
	}
	if n.Seed() != 3 {
		t.Errorf("Seed() = %d; want 3", n.Seed())
	}
	if got := Perturb(1, 0.5, 0.7); got != 1 {
		t.Errorf("Perturb at u=0.5 = %v; want 1", got)
	}
}

func TestPartition(t *testing.T) {
	t.Run("17 agents over 5 workers", func(t *testing.T) {
		got, err := Partition(17, 5)
		if err != nil {
			t.Fatal(err)
		}
		want := []Range{{0, 3}, {3, 6}, {6, 9}, {9, 12}, {12, 17}}
		if len(got) != len(want) {
			t.Fatalf("got %d ranges; want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("range %d = %v; want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("tiling", func(t *testing.T) {
		for _, tc := range []struct{ n, w int }{{0, 1}, {1, 1}, {3, 5}, {100, 7}, {5000, 8}} {
			ranges, err := Partition(tc.n, tc.w)
			if err != nil {
				t.Fatalf("Partition(%d, %d): %v", tc.n, tc.w, err)
			}
			next, total := 0, 0
			for _, r := range ranges {
				if r.Start != next || r.End < r.Start {
					t.Fatalf("Partition(%d, %d): gap or overlap at %v", tc.n, tc.w, r)
				}
				next = r.End
				total += r.Len()
			}
			if total != tc.n || next != tc.n {
				t.Errorf("Partition(%d, %d) covers %d agents", tc.n, tc.w, total)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := Partition(10, 0); !errors.Is(err, ErrInvalidPartition) {
			t.Errorf("Partition(10, 0) = %v", err)
		}
		if _, err := Partition(-1, 2); !errors.Is(err, ErrInvalidPartition) {
			t.Errorf("Partition(-1, 2) = %v", err)
		}
	})

	r := Range{Start: 3, End: 6}
	if !r.Contains(3) || r.Contains(6) || r.String() != "[3,6)" {
		t.Errorf("Range helpers misbehave for %v", r)
	}
}

func TestBlas(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 1, 1}
	var ops VectorMath = Blas{}
	ops.Axpy(2, x, y)
	for i, want := range []float64{3, 5, 7} {
		if y[i] != want {
			t.Errorf("Axpy y[%d] = %v; want %v", i, y[i], want)
		}
	}
	if got := ops.Dot(x, y); got != 34 {
		t.Errorf("Dot = %v; want 34", got)
	}
}
