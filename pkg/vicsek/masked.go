package vicsek

import (
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
)

// Masked is the dot-product kernel. For each agent b it fills two length-N
// vectors with cos θᵢ and sin θᵢ for the neighbours of b (zero elsewhere) and
// reduces each with a VectorMath dot product against a vector of ones.
//
// The scratch vectors are sized once and reused for every agent and every
// step; they grow only when the agent count grows.
type Masked struct {
	ops      VectorMath
	cosTheta []float64
	sinTheta []float64
	ones     []float64
}

var _ Averager = (*Masked)(nil)

// NewMasked creates a masked kernel over ops.
func NewMasked(ops VectorMath) *Masked {
	return &Masked{ops: ops}
}

// Name implements Averager.
func (m *Masked) Name() string { return BackendMasked }

func (m *Masked) reserve(n int) {
	if len(m.ones) == n {
		return
	}
	m.cosTheta = make([]float64, n)
	m.sinTheta = make([]float64, n)
	m.ones = make([]float64, n)
	for i := range m.ones {
		m.ones[i] = 1
	}
}

// MeanHeadings implements Averager.
func (m *Masked) MeanHeadings(s *State, nb Neighborhood, start, end int) {
	m.reserve(s.Len())
	for b := start; b < end; b++ {
		xb, yb := s.X[b], s.Y[b]
		for i := range m.ones {
			if nb.Contains(xb, yb, s.X[i], s.Y[i]) {
				m.cosTheta[i] = math.Cos(s.Theta[i])
				m.sinTheta[i] = math.Sin(s.Theta[i])
			} else {
				m.cosTheta[i] = 0
				m.sinTheta[i] = 0
			}
		}
		sx := m.ops.Dot(m.cosTheta, m.ones)
		sy := m.ops.Dot(m.sinTheta, m.ones)
		s.Mean[b] = geometry.CircularMean(sy, sx)
	}
}
