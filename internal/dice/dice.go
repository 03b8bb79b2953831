// Package dice draws the order outcome rolls.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
)

// ErrEmptyRange indicates a roll range with max below min.
var ErrEmptyRange = errors.New("roll range is empty")

// Roller draws a uniformly distributed integer in [min, max].
//
// The engine owns a single Roller per session and calls it from one
// goroutine, so implementations need not be safe for concurrent use.
type Roller interface {
	Roll(min, max int) (int, error)
}

// Seeded is a deterministic Roller backed by math/rand. Given the same seed
// and the same sequence of calls it always produces the same rolls.
type Seeded struct {
	seed int64
	rng  *rand.Rand
}

// NewSeeded creates a Seeded roller.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the roller was created with.
func (s *Seeded) Seed() int64 {
	return s.seed
}

// Roll implements Roller.
func (s *Seeded) Roll(min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("%w: %d..%d", ErrEmptyRange, min, max)
	}
	return min + s.rng.Intn(max-min+1), nil
}

// Sequence replays fixed results, useful for scripted rolls and tests.
// Each result is checked against the requested range.
type Sequence struct {
	results []int
	next    int
}

// NewSequence creates a Sequence roller returning results in order.
func NewSequence(results ...int) *Sequence {
	return &Sequence{results: results}
}

// ErrSequenceExhausted indicates every scripted result has been used.
var ErrSequenceExhausted = errors.New("scripted rolls exhausted")

// Roll implements Roller.
func (s *Sequence) Roll(min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("%w: %d..%d", ErrEmptyRange, min, max)
	}
	if s.next >= len(s.results) {
		return 0, ErrSequenceExhausted
	}
	v := s.results[s.next]
	s.next++
	if v < min || v > max {
		return 0, fmt.Errorf("scripted roll %d outside %d..%d", v, min, max)
	}
	return v, nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
