package vicsek

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
)

// Neighborhood decides which agents interact: i is a neighbour of b when
// their squared distance is strictly less than RadiusSq. Every agent is its
// own neighbour.
type Neighborhood struct {
	RadiusSq float64
	Domain   geometry.Domain
	Periodic bool
}

// Contains reports whether the agents at (xb, yb) and (xi, yi) are neighbours.
func (n Neighborhood) Contains(xb, yb, xi, yi float64) bool {
	dx := xi - xb
	dy := yi - yb
	if n.Periodic {
		dx = n.Domain.MinImage(dx)
		dy = n.Domain.MinImage(dy)
	}
	return dx*dx+dy*dy < n.RadiusSq
}

// Averager computes, for every agent b in [start, end), the circular mean
// heading of all agents within the neighbourhood of b and stores it in
// s.Mean[b]. Implementations read s.X, s.Y and s.Theta for all agents and
// write nothing but s.Mean[start:end].
type Averager interface {
	Name() string
	MeanHeadings(s *State, nb Neighborhood, start, end int)
}

// Backend names accepted by NewAverager.
const (
	BackendSequential = "sequential"
	BackendParallel   = "parallel"
	BackendMasked     = "masked"
)

// ErrUnknownBackend is returned by NewAverager for an unrecognised name.
var ErrUnknownBackend = errors.New("unknown kernel backend")

// NewAverager builds the kernel backend called name. workers only matters for
// the parallel backend (<= 0 means GOMAXPROCS); ops only for the masked one
// (nil means Blas). Backends that hold goroutines implement io.Closer.
func NewAverager(name string, workers int, ops VectorMath) (Averager, error) {
	switch strings.ToLower(name) {
	case "", BackendSequential:
		return Sequential{}, nil
	case BackendParallel:
		return NewParallel(workers), nil
	case BackendMasked:
		if ops == nil {
			ops = Blas{}
		}
		return NewMasked(ops), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Sequential is the reference all-pairs kernel: b outer, i inner,
// accumulating sin and cos directly.
type Sequential struct{}

var _ Averager = Sequential{}

// Name implements Averager.
func (Sequential) Name() string { return BackendSequential }

// MeanHeadings implements Averager.
func (Sequential) MeanHeadings(s *State, nb Neighborhood, start, end int) {
	for b := start; b < end; b++ {
		sx, sy := partialSums(s, nb, b, 0, s.Len())
		s.Mean[b] = geometry.CircularMean(sy, sx)
	}
}

// partialSums accumulates Σcos θᵢ and Σsin θᵢ over the neighbours i of b
// with i in [lo, hi).
func partialSums(s *State, nb Neighborhood, b, lo, hi int) (sumCos, sumSin float64) {
	xb, yb := s.X[b], s.Y[b]
	for i := lo; i < hi; i++ {
		if nb.Contains(xb, yb, s.X[i], s.Y[i]) {
			sumCos += math.Cos(s.Theta[i])
			sumSin += math.Sin(s.Theta[i])
		}
	}
	return sumCos, sumSin
}
