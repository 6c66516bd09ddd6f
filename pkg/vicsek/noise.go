package vicsek

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// noiseStream is the PCG stream used for per-step heading noise.
const noiseStream = 0x6a09e667f3bcc909

// Noise is the model's only stochastic element: u ~ U[0, 1) drawn
// independently per agent per step. Two Noise values with the same seed
// produce the same sequence.
type Noise struct {
	seed uint64
	dist distuv.Uniform
}

// NewNoise returns a noise source seeded with seed.
func NewNoise(seed uint64) *Noise {
	n := &Noise{}
	n.Reseed(seed)
	return n
}

// Reseed restarts the sequence from seed.
func (n *Noise) Reseed(seed uint64) {
	n.seed = seed
	n.dist = distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(seed, noiseStream)}
}

// Seed returns the seed of the current sequence.
func (n *Noise) Seed() uint64 {
	return n.seed
}

// Fill draws len(dst) values in index order.
func (n *Noise) Fill(dst []float64) {
	for i := range dst {
		dst[i] = n.dist.Rand()
	}
}

// Perturb returns mean + eta·(u − 0.5).
func Perturb(mean, u, eta float64) float64 {
	return mean + eta*(u-0.5)
}
