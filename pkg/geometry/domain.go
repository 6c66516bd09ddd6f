package geometry

import (
	"errors"
	"math"
)

// ErrInvalidDomain is returned when a domain side is not a positive finite number.
var ErrInvalidDomain = errors.New("domain size must be a positive finite number")

// Domain is the periodic square [0, Size)².
type Domain struct {
	Size float64
}

// NewDomain returns a Domain of side size.
func NewDomain(size float64) (Domain, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return Domain{}, ErrInvalidDomain
	}
	return Domain{Size: size}, nil
}

// WrapCoord maps a single coordinate into [0, Size) whatever its sign or distance
// from the domain: ((c mod L) + L) mod L.
func (d Domain) WrapCoord(c float64) float64 {
	return math.Mod(math.Mod(c, d.Size)+d.Size, d.Size)
}

// Wrap maps a point into the domain, each axis independently.
func (d Domain) Wrap(p Vector2D) Vector2D {
	return Vector2D{X: d.WrapCoord(p.X), Y: d.WrapCoord(p.Y)}
}

// Contains reports whether p lies in [0, Size)².
func (d Domain) Contains(p Vector2D) bool {
	return p.X >= 0 && p.X < d.Size && p.Y >= 0 && p.Y < d.Size
}

// MinImage folds a coordinate difference of two in-domain points onto the
// nearest periodic image, result in [-Size/2, Size/2].
func (d Domain) MinImage(delta float64) float64 {
	half := d.Size / 2
	if delta > half {
		return delta - d.Size
	}
	if delta < -half {
		return delta + d.Size
	}
	return delta
}

// Displacement returns the vector from a to b. When periodic is true the
// shortest image across the boundaries is used, otherwise plain subtraction.
func (d Domain) Displacement(a, b Vector2D, periodic bool) Vector2D {
	dv := b.Sub(a)
	if periodic {
		dv.X = d.MinImage(dv.X)
		dv.Y = d.MinImage(dv.Y)
	}
	return dv
}

// DistanceSquared is the squared length of Displacement(a, b, periodic).
func (d Domain) DistanceSquared(a, b Vector2D, periodic bool) float64 {
	return d.Displacement(a, b, periodic).LenSqr()
}
