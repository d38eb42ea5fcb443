package domain

import "math/rand/v2"

// SystemRNG delegates to the auto-seeded math/rand/v2 global source.
type SystemRNG struct{}

func (SystemRNG) Intn(n int) int { return rand.IntN(n) }

// SeededRNG is a reproducible PCG-backed source.
type SeededRNG struct {
	r *rand.Rand
}

// NewSeededRNG returns an RNG that yields the same sequence for the same seed.
func NewSeededRNG(seed uint64) *SeededRNG {
	return &SeededRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededRNG) Intn(n int) int { return s.r.IntN(n) }
