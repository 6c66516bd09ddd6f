package vicsek

import "gonum.org/v1/gonum/blas/blas64"

// VectorMath is the pair of dense-vector primitives the integrator and the
// masked kernel are written against. Implementations must treat x and y as
// unit-stride slices of equal length.
type VectorMath interface {
	// Axpy computes y ← y + alpha·x elementwise.
	Axpy(alpha float64, x, y []float64)
	// Dot returns Σ xᵢ·yᵢ.
	Dot(x, y []float64) float64
}

// Blas is the VectorMath backed by gonum's blas64, which dispatches to the
// registered BLAS implementation (pure Go unless another one is registered
// with blas64.Use).
type Blas struct{}

var _ VectorMath = Blas{}

func vec(s []float64) blas64.Vector {
	return blas64.Vector{N: len(s), Inc: 1, Data: s}
}

// Axpy implements VectorMath.
func (Blas) Axpy(alpha float64, x, y []float64) {
	blas64.Axpy(alpha, vec(x), vec(y))
}

// Dot implements VectorMath.
func (Blas) Dot(x, y []float64) float64 {
	return blas64.Dot(vec(x), vec(y))
}
