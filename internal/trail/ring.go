package trail

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Ring is a fixed-capacity circular buffer of positions. Once full, each
// Push overwrites the oldest point.
type Ring struct {
	buf  []dynamo.Vec2
	head int // next write index
	size int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]dynamo.Vec2, capacity)}
}

func (r *Ring) Push(p dynamo.Vec2) {
	r.buf[r.head] = p
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *Ring) Len() int { return r.size }
func (r *Ring) Cap() int { return len(r.buf) }

// At returns the i-th point, 0 being the oldest.
func (r *Ring) At(i int) dynamo.Vec2 {
	if i < 0 || i >= r.size {
		panic(fmt.Sprintf("trail: index %d out of range [0,%d)", i, r.size))
	}
	start := r.head - r.size
	if start < 0 {
		start += len(r.buf)
	}
	return r.buf[(start+i)%len(r.buf)]
}

// Last returns the most recently pushed point.
func (r *Ring) Last() (dynamo.Vec2, bool) {
	if r.size == 0 {
		return dynamo.Vec2{}, false
	}
	return r.At(r.size - 1), true
}

// Points returns an oldest-first copy of the buffered points.
func (r *Ring) Points() []dynamo.Vec2 {
	out := make([]dynamo.Vec2, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

func (r *Ring) Reset() {
	r.head = 0
	r.size = 0
}

// Set holds one Ring per body, addressed by body index.
type Set struct {
	rings []*Ring
}

func NewSet(n, capacity int) *Set {
	s := &Set{rings: make([]*Ring, n)}
	for i := range s.rings {
		s.rings[i] = NewRing(capacity)
	}
	return s
}

// Record pushes positions[i] onto ring i.
func (s *Set) Record(positions []dynamo.Vec2) error {
	if len(positions) != len(s.rings) {
		return fmt.Errorf("%d trajectories for %d positions: %w", len(s.rings), len(positions), dynamo.ErrDimensionMismatch)
	}
	for i, p := range positions {
		s.rings[i].Push(p)
	}
	return nil
}

func (s *Set) Size() int        { return len(s.rings) }
func (s *Set) Len(i int) int    { return s.rings[i].Len() }
func (s *Set) Ring(i int) *Ring { return s.rings[i] }

// Snapshot returns an independent copy of every trajectory.
func (s *Set) Snapshot() [][]dynamo.Vec2 {
	out := make([][]dynamo.Vec2, len(s.rings))
	for i, r := range s.rings {
		out[i] = r.Points()
	}
	return out
}

func (s *Set) Reset() {
	for _, r := range s.rings {
		r.Reset()
	}
}
