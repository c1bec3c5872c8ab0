package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// CircularOrbit places primary and secondary on a circular relative orbit
// of radius r in their centre-of-mass frame. The pair is laid out along
// the x axis with the secondary on the positive side, orbiting
// counter-clockwise. Names, masses and colors are taken from the inputs.
func (g *Gravity) CircularOrbit(primary, secondary dynamo.Body, r float64) (dynamo.Bodies, error) {
	if !(r > 0) {
		return nil, fmt.Errorf("orbit radius must be positive, got %g: %w", r, dynamo.ErrParameterBounds)
	}
	if !(primary.Mass > 0) || !(secondary.Mass > 0) {
		return nil, dynamo.ErrInvalidMass
	}

	total := primary.Mass + secondary.Mass
	v := math.Sqrt(g.G * total / r)

	fp := secondary.Mass / total
	fs := primary.Mass / total

	return dynamo.Bodies{
		primary.Advance(dynamo.Vec2{X: -r * fp}, dynamo.Vec2{Y: -v * fp}),
		secondary.Advance(dynamo.Vec2{X: r * fs}, dynamo.Vec2{Y: v * fs}),
	}, nil
}

// OrbitalPeriod returns the Keplerian period of a two-body orbit with
// semi-major axis a.
func (g *Gravity) OrbitalPeriod(m1, m2, a float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/(g.G*(m1+m2)))
}
