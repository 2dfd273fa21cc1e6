// Package entropy supplies the random draws behind prices and market events.
// Every draw goes through a Source so games can be replayed from a seed and
// tests can script exact outcomes.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// Seeded is a deterministic Source backed by a PCG generator.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded returns a Source that replays the same sequence for the same seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Float() float64 { return s.rng.Float64() }

// Crypto draws from crypto/rand. The zero value is ready to use.
type Crypto struct{}

func (Crypto) Float() float64 { return cryptoRandFloat() }

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Sequence replays fixed draws in order and wraps around at the end.
// Used to script exact outcomes.
type Sequence struct {
	vals []float64
	next int
}

// NewSequence returns a Source replaying vals. Panics if vals is empty.
func NewSequence(vals ...float64) *Sequence {
	if len(vals) == 0 {
		panic("entropy: empty sequence")
	}
	return &Sequence{vals: vals}
}

func (s *Sequence) Float() float64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

// Drawn reports how many values have been consumed.
func (s *Sequence) Drawn() int { return s.next }

// Intn returns a uniform int in [0, n). n must be positive.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Between returns a uniform int in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + Intn(src, hi-lo+1)
}

// Chance reports whether a draw lands under p.
func Chance(src Source, p float64) bool {
	return src.Float() < p
}

// Pick returns a uniformly chosen element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[Intn(src, len(items))]
}
