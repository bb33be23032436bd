package game

import "math/rand"

// countingSource wraps the rand source and counts values drawn from it, so a
// generator can be rebuilt at the same position from (seed, n).
type countingSource struct {
	src rand.Source64
	n   int
}

func (s *countingSource) Int63() int64 {
	s.n++
	return s.src.Int63()
}

func (s *countingSource) Uint64() uint64 {
	s.n++
	return s.src.Uint64()
}

func (s *countingSource) Seed(seed int64) {
	s.n = 0
	s.src.Seed(seed)
}

// Random is the seeded source shared by deck shuffling and opponent move
// resolution.
type Random struct {
	seed int64
	src  *countingSource
	rnd  *rand.Rand
}

// NewRandom returns a generator for seed. Seed 0 is mapped to 1.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = 1
	}
	src := &countingSource{src: rand.NewSource(seed).(rand.Source64)}
	return &Random{seed: seed, src: src, rnd: rand.New(src)}
}

// RestoreRandom rebuilds a generator that has already produced n values.
func RestoreRandom(seed int64, n int) *Random {
	r := NewRandom(seed)
	for i := 0; i < n; i++ {
		r.src.Int63()
	}
	return r
}

func (r *Random) Seed() int64 { return r.seed }

// N is the number of source values consumed so far.
func (r *Random) N() int { return r.src.n }

// Snapshot returns an independent generator at the same position.
func (r *Random) Snapshot() *Random {
	return RestoreRandom(r.seed, r.src.n)
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *Random) Intn(n int) int {
	return r.rnd.Intn(n)
}

// Float64Range returns a value in [min, max).
func (r *Random) Float64Range(min, max float64) float64 {
	return r.rnd.Float64()*(max-min) + min
}

// SelectRandom picks one item uniformly. It panics on an empty slice.
func SelectRandom[T any](r *Random, items []T) T {
	return items[r.Intn(len(items))]
}

// SelectWeighted picks one item with probability proportional to its weight.
// Non-positive weights never win. When every weight is zero the first item
// is returned.
func SelectWeighted[T any](r *Random, items []T, weights []int) T {
	total := 0
	for i := range items {
		if i < len(weights) && weights[i] > 0 {
			total += weights[i]
		}
	}
	if total == 0 {
		return items[0]
	}
	roll := r.Intn(total)
	for i := range items {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		if roll < weights[i] {
			return items[i]
		}
		roll -= weights[i]
	}
	return items[len(items)-1]
}

// Shuffle permutes items in place (Fisher-Yates, walking down from the end).
func Shuffle[T any](r *Random, items []T) {
	for i := len(items) - 1; i >= 1; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
