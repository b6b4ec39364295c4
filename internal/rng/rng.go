// Package rng provides deterministic, per-worker random substreams for the
// housing market core. Every parallel task (buyer choice-set construction,
// participation draws, supply generation) gets its own Substream seeded from
// a fixed prefix of the root stream, so a fixed root seed reproduces the same
// sequence of draws regardless of how goroutines are scheduled.
package rng

import "math/rand"

// Substream is a single deterministic stream of uniform and normal draws.
// It is not safe for concurrent use by multiple goroutines; callers create
// one Substream per parallel task instead of sharing one across tasks.
type Substream struct {
	r *rand.Rand
}

// New creates a Substream seeded directly from seed.
func New(seed uint32) *Substream {
	return &Substream{r: rand.New(rand.NewSource(int64(seed)))}
}

// Float64 returns a uniform sample in [0, 1).
func (s *Substream) Float64() float64 {
	return s.r.Float64()
}

// NormFloat64 returns a sample from the standard normal distribution.
func (s *Substream) NormFloat64() float64 {
	return s.r.NormFloat64()
}

// Intn returns a uniform integer in [0, n).
func (s *Substream) Intn(n int) int {
	return s.r.Intn(n)
}

// Bool returns true with probability p (p clamped to [0, 1]).
func (s *Substream) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// Child derives a new independent Substream by drawing a uniform sample from
// s and scaling it to a 32-bit unsigned seed. This is how the root stream
// spawns one child seed per parallel worker without sharing state across
// goroutines.
func (s *Substream) Child() *Substream {
	seed := uint32(s.r.Float64() * float64(^uint32(0)))
	return New(seed)
}

// Root is the top-level substream for a simulation run, seeded once from
// the configured RandomSeed. PerMonth derives the deterministic per-month
// substream used for a given (year, month) tick, per the seeding formula
// `year * RandomSeed + month`.
type Root struct {
	seed uint32
}

// NewRoot creates the run's root stream from the configured seed.
func NewRoot(seed uint32) *Root {
	return &Root{seed: seed}
}

// PerMonth returns the deterministic substream for a given (year, month)
// monthly tick.
func (r *Root) PerMonth(year, month int) *Substream {
	monthSeed := uint32(year)*r.seed + uint32(month)
	return New(monthSeed)
}

// yearlyOffset shifts the yearly substream's seed away from the same
// year's monthly seeds (which add only 0-11 to year*seed), so the
// once-a-year supply draw never shares a seed with a tick of its own year.
// A tick of a different year can still map to the same seed for some
// RandomSeed values (for example 999983).
const yearlyOffset = 999983

// PerYear returns the deterministic substream for the supply generator's
// once-a-year draw, ahead of that year's first monthly tick.
func (r *Root) PerYear(year int) *Substream {
	yearSeed := uint32(year)*r.seed + yearlyOffset
	return New(yearSeed)
}
