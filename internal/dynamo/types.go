package dynamo

import (
	"fmt"
	"math"
)

// Vec2 is a 2D vector in simulation units.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len2() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Len() float64 { return math.Sqrt(v.Len2()) }

// IsFinite reports whether neither component is NaN or Inf.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Body is a point mass participating in mutual gravitation.
// Name, Mass and Color never change after initialization.
type Body struct {
	Name  string  `json:"name"`
	Mass  float64 `json:"mass"`
	Pos   Vec2    `json:"pos"`
	Vel   Vec2    `json:"vel"`
	Color string  `json:"color"`
}

// Advance returns a copy of b with its kinematic state replaced.
func (b Body) Advance(pos, vel Vec2) Body {
	b.Pos = pos
	b.Vel = vel
	return b
}

// Momentum returns m*v.
func (b Body) Momentum() Vec2 { return b.Vel.Scale(b.Mass) }

// Bodies is an ordered system snapshot. The index of a body is its
// identity for trajectory association and never changes during a run.
type Bodies []Body

func (bs Bodies) Clone() Bodies {
	if bs == nil {
		return nil
	}
	c := make(Bodies, len(bs))
	copy(c, bs)
	return c
}

func (bs Bodies) Positions() []Vec2 {
	out := make([]Vec2, len(bs))
	for i, b := range bs {
		out[i] = b.Pos
	}
	return out
}

func (bs Bodies) Names() []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func (bs Bodies) TotalMass() float64 {
	m := 0.0
	for _, b := range bs {
		m += b.Mass
	}
	return m
}

// IsValid reports whether every position and velocity is finite.
func (bs Bodies) IsValid() bool {
	for _, b := range bs {
		if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
			return false
		}
	}
	return true
}

// Validate checks the initialization invariants: positive mass, finite
// kinematic state, unique names and no two bodies at the same position.
func (bs Bodies) Validate() error {
	seen := make(map[string]int, len(bs))
	for i, b := range bs {
		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return fmt.Errorf("body %d (%s): mass %g: %w", i, b.Name, b.Mass, ErrInvalidMass)
		}
		if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
			return fmt.Errorf("body %d (%s): %w", i, b.Name, ErrInvalidState)
		}
		if j, ok := seen[b.Name]; ok {
			return fmt.Errorf("bodies %d and %d share name %q: %w", j, i, b.Name, ErrDuplicateName)
		}
		seen[b.Name] = i
	}

	for i := range bs {
		for j := i + 1; j < len(bs); j++ {
			if bs[i].Pos == bs[j].Pos {
				return fmt.Errorf("%s and %s at (%g, %g): %w",
					bs[i].Name, bs[j].Name, bs[i].Pos.X, bs[i].Pos.Y, ErrCoincident)
			}
		}
	}
	return nil
}
