package audio

import (
	"math/rand/v2"
	"sync"
)

// Selector picks the next message index, either uniformly at random or
// round-robin with a position that persists across calls.
type Selector struct {
	mu    sync.Mutex
	index int
	rnd   *rand.Rand
}

// NewSelector uses rnd for random picks; nil means the global source.
func NewSelector(rnd *rand.Rand) *Selector {
	return &Selector{rnd: rnd}
}

// Next returns an index in [0, n). Round-robin advances before picking, so
// a fresh selector starts at index 1 (mod n).
func (s *Selector) Next(n int, random bool) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyCatalog
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if random {
		if s.rnd != nil {
			s.index = s.rnd.IntN(n)
		} else {
			s.index = rand.IntN(n)
		}
	} else {
		s.index = (s.index + 1) % n
	}
	return s.index, nil
}
