package physics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

func (g *Gravity) KineticEnergy(bodies dynamo.Bodies) float64 {
	ke := 0.0
	for _, b := range bodies {
		ke += 0.5 * b.Mass * b.Vel.Len2()
	}
	return ke
}

// PotentialEnergy sums -G*mi*mj/r over unordered pairs, using the same
// softened separation as the force law.
func (g *Gravity) PotentialEnergy(bodies dynamo.Bodies) float64 {
	eps2 := g.Softening * g.Softening
	pe := 0.0
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			r := math.Sqrt(bodies[j].Pos.Sub(bodies[i].Pos).Len2() + eps2)
			if r == 0 {
				continue
			}
			pe -= g.G * bodies[i].Mass * bodies[j].Mass / r
		}
	}
	return pe
}

func (g *Gravity) Energy(bodies dynamo.Bodies) float64 {
	return g.KineticEnergy(bodies) + g.PotentialEnergy(bodies)
}

// Momentum returns the total linear momentum of the system.
func Momentum(bodies dynamo.Bodies) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, b := range bodies {
		p = p.Add(b.Momentum())
	}
	return p
}

// AngularMomentum returns the z component of total angular momentum about the origin.
func AngularMomentum(bodies dynamo.Bodies) float64 {
	l := 0.0
	for _, b := range bodies {
		l += b.Mass * (b.Pos.X*b.Vel.Y - b.Pos.Y*b.Vel.X)
	}
	return l
}

func CenterOfMass(bodies dynamo.Bodies) dynamo.Vec2 {
	total := bodies.TotalMass()
	if total == 0 {
		return dynamo.Vec2{}
	}
	var c dynamo.Vec2
	for _, b := range bodies {
		c = c.Add(b.Pos.Scale(b.Mass))
	}
	return c.Scale(1 / total)
}

// Separation returns the distance between bodies a and b.
func Separation(bodies dynamo.Bodies, a, b int) float64 {
	return bodies[b].Pos.Sub(bodies[a].Pos).Len()
}
