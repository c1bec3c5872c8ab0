package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

const (
	// G is the Newtonian gravitational constant in m^3 kg^-1 s^-2.
	G = 6.6743e-11

	// DefaultDt is one simulated day.
	DefaultDt = 86400.0

	// parallelMinChunk is the smallest number of bodies handed to one worker.
	parallelMinChunk = 8
)

// Gravity integrates a system of point masses under mutual Newtonian
// attraction by direct pairwise summation.
type Gravity struct {
	// G is the gravitational constant used for every pair.
	G float64
	// Softening is the Plummer length added in quadrature to every
	// separation. Zero means exact Newtonian forces.
	Softening float64
	// Workers > 1 spreads the force loop over goroutines.
	Workers int
}

func NewGravity() *Gravity {
	return &Gravity{G: G}
}

// Step advances every body by dt and returns a new snapshot in the same
// order. Forces are evaluated from the input snapshot only; the input is
// never modified.
//
// Velocities are advanced with the acceleration at the old positions, and
// positions with the old velocity:
//
//	v' = v + a*dt
//	x' = x + v*dt
func (g *Gravity) Step(bodies dynamo.Bodies, dt float64) (dynamo.Bodies, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("dt must be positive, got %g: %w", dt, dynamo.ErrParameterBounds)
	}
	if len(bodies) == 0 {
		return dynamo.Bodies{}, nil
	}

	forces, err := g.Forces(bodies)
	if err != nil {
		return nil, err
	}

	next := make(dynamo.Bodies, len(bodies))
	for i, b := range bodies {
		acc := dynamo.Vec2{X: forces[i].X / b.Mass, Y: forces[i].Y / b.Mass}
		next[i] = b.Advance(b.Pos.Add(b.Vel.Scale(dt)), b.Vel.Add(acc.Scale(dt)))
	}

	if !next.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return next, nil
}

// Forces returns the net gravitational force on every body.
func (g *Gravity) Forces(bodies dynamo.Bodies) ([]dynamo.Vec2, error) {
	n := len(bodies)
	forces := make([]dynamo.Vec2, n)
	errs := make([]error, n)

	accumulate := func(start, end int) {
		for i := start; i < end; i++ {
			forces[i], errs[i] = g.netForce(bodies, i)
		}
	}

	if g.Workers > 1 {
		dynamo.ParallelFor(n, parallelMinChunk, g.Workers, accumulate)
	} else {
		accumulate(0, n)
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return forces, nil
}

// netForce sums the pull of every other body on body i.
func (g *Gravity) netForce(bodies dynamo.Bodies, i int) (dynamo.Vec2, error) {
	bi := bodies[i]
	eps2 := g.Softening * g.Softening
	var fx, fy float64

	for j, bj := range bodies {
		if i == j {
			continue
		}

		dx := bj.Pos.X - bi.Pos.X
		dy := bj.Pos.Y - bi.Pos.Y
		r2 := dx*dx + dy*dy + eps2
		if r2 == 0 {
			return dynamo.Vec2{}, fmt.Errorf("%s and %s: %w", bi.Name, bj.Name, dynamo.ErrCoincident)
		}
		r := math.Sqrt(r2)

		f := g.G * bi.Mass * bj.Mass / r2
		fx += f * dx / r
		fy += f * dy / r
	}

	return dynamo.Vec2{X: fx, Y: fy}, nil
}

// GetParams returns the tunable integrator parameters.
func (g *Gravity) GetParams() map[string]float64 {
	return map[string]float64{
		"g":         g.G,
		"softening": g.Softening,
	}
}

// SetParam updates a tunable parameter by name.
func (g *Gravity) SetParam(name string, value float64) error {
	switch name {
	case "g":
		if !(value > 0) {
			return fmt.Errorf("g must be positive: %w", dynamo.ErrParameterBounds)
		}
		g.G = value
	case "softening":
		if value < 0 {
			return fmt.Errorf("softening must be non-negative: %w", dynamo.ErrParameterBounds)
		}
		g.Softening = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
