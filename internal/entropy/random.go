// Package entropy provides the single seeded random stream that every
// stochastic draw of a dynasty run consumes from. Reordering calls into a
// stream changes the generated forest, so callers share one Stream per run.
package entropy

import (
	"math/rand"
)

// Stream wraps math/rand.Rand with call-position tracking.
type Stream struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a deterministic stream from a seed.
func New(seed int64) *Stream {
	return &Stream{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Derive returns an independent stream seeded at seed+offset. Subsystems that
// must not perturb the core sequence (names, for instance) draw from a derived
// stream instead of the run stream.
func (s *Stream) Derive(offset int64) *Stream {
	return New(s.seed + offset)
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Position returns the number of draws made since creation.
func (s *Stream) Position() int64 {
	return s.pos
}

// Float returns a uniform float64 in [0, 1).
func (s *Stream) Float() float64 {
	s.pos++
	return s.src.Float64()
}

// Bernoulli returns true with probability p.
func (s *Stream) Bernoulli(p float64) bool {
	return s.Float() < p
}

// IntRange returns a uniform integer in [lo, hi], both inclusive.
// If hi < lo it returns lo without consuming a draw.
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.pos++
	return lo + s.src.Intn(hi-lo+1)
}

// Choose returns an index picked with probability proportional to weights.
// Non-positive weights are never picked. Returns -1 when no weight is positive.
func (s *Stream) Choose(weights []float64) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}

	roll := s.Float() * total
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return last
}

// SampleIndices picks k distinct indices from [0, n) uniformly without
// replacement, in draw order. k is clamped to n.
func (s *Stream) SampleIndices(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := s.IntRange(i, n-1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
