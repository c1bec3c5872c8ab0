package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

func trinary() dynamo.Bodies {
	return dynamo.Bodies{
		{Name: "Star 1", Mass: 1.689e30, Color: "#FFD700"},
		{Name: "Star 2", Mass: 1.5e30, Pos: dynamo.Vec2{Y: 1.5e11}, Vel: dynamo.Vec2{Y: 2e4}, Color: "#FFA500"},
		{Name: "Star 3", Mass: 1.9e30, Pos: dynamo.Vec2{X: -1.1e11}, Vel: dynamo.Vec2{Y: -2e4}, Color: "#FF4500"},
		{Name: "Planet", Mass: 5.972e24, Pos: dynamo.Vec2{X: 1e11}, Vel: dynamo.Vec2{Y: 3e4}, Color: "#1E90FF"},
	}
}

func ring(n int) dynamo.Bodies {
	bodies := make(dynamo.Bodies, n)
	for i := range bodies {
		angle := 2 * math.Pi * float64(i) / float64(n)
		r := 1e11 * (1 + 0.1*float64(i%3))
		bodies[i] = dynamo.Body{
			Name: string(rune('A' + i%26)) + string(rune('a'+i/26)),
			Mass: 1e29 * float64(1+i%5),
			Pos:  dynamo.Vec2{X: r * math.Cos(angle), Y: r * math.Sin(angle)},
			Vel:  dynamo.Vec2{X: -2e4 * math.Sin(angle), Y: 2e4 * math.Cos(angle)},
		}
	}
	return bodies
}

func beRoughly(want float64) types.GomegaMatcher {
	return BeNumerically("~", want, math.Abs(want)*1e-12+1e-9)
}

func run(g *physics.Gravity, bodies dynamo.Bodies, steps int, dt float64) dynamo.Bodies {
	for i := 0; i < steps; i++ {
		next, err := g.Step(bodies, dt)
		Expect(err).NotTo(HaveOccurred())
		bodies = next
	}
	return bodies
}

var _ = Describe("Gravity", func() {
	var g *physics.Gravity

	BeforeEach(func() {
		g = physics.NewGravity()
	})

	Describe("Step", func() {
		It("returns an empty snapshot for no bodies", func() {
			next, err := g.Step(dynamo.Bodies{}, physics.DefaultDt)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(BeEmpty())
			Expect(next).NotTo(BeNil())
		})

		It("rejects a non-positive or infinite dt", func() {
			for _, dt := range []float64{0, -1, math.Inf(1), math.NaN()} {
				_, err := g.Step(trinary(), dt)
				Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			}
		})

		It("moves a lone body in a straight line", func() {
			lone := dynamo.Bodies{{Name: "a", Mass: 1, Pos: dynamo.Vec2{X: 1}, Vel: dynamo.Vec2{X: 2, Y: -3}}}
			next, err := g.Step(lone, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(next[0].Pos).To(Equal(dynamo.Vec2{X: 21, Y: -30}))
			Expect(next[0].Vel).To(Equal(dynamo.Vec2{X: 2, Y: -3}))
		})

		It("advances positions with the velocity from the start of the step", func() {
			pair := dynamo.Bodies{
				{Name: "a", Mass: 1e30},
				{Name: "b", Mass: 1e29, Pos: dynamo.Vec2{X: 1e11}, Vel: dynamo.Vec2{Y: 3e4}},
			}
			dt := 86400.0
			next, err := g.Step(pair, dt)
			Expect(err).NotTo(HaveOccurred())

			// a starts at rest, so it must not move during the first step
			// even though it picks up velocity.
			Expect(next[0].Pos).To(Equal(dynamo.Vec2{}))
			Expect(next[0].Vel.X).To(BeNumerically(">", 0))

			f := g.G * 1e30 * 1e29 / 1e22
			Expect(next[0].Vel.X).To(beRoughly(f / 1e30 * dt))
			Expect(next[1].Pos).To(Equal(dynamo.Vec2{X: 1e11, Y: 3e4 * dt}))
			Expect(next[1].Vel.X).To(beRoughly(-f / 1e29 * dt))
			Expect(next[1].Vel.Y).To(Equal(3e4))
		})

		It("matches a hand-computed step for three bodies", func() {
			bodies := trinary()[:3]
			dt := 3600.0
			next, err := g.Step(bodies, dt)
			Expect(err).NotTo(HaveOccurred())

			for i, bi := range bodies {
				var fx, fy float64
				for j, bj := range bodies {
					if i == j {
						continue
					}
					dx, dy := bj.Pos.X-bi.Pos.X, bj.Pos.Y-bi.Pos.Y
					r2 := dx*dx + dy*dy
					r := math.Sqrt(r2)
					f := physics.G * bi.Mass * bj.Mass / r2
					fx += f * dx / r
					fy += f * dy / r
				}
				Expect(next[i].Vel.X).To(beRoughly(bi.Vel.X + fx/bi.Mass*dt))
				Expect(next[i].Vel.Y).To(beRoughly(bi.Vel.Y + fy/bi.Mass*dt))
				Expect(next[i].Pos.X).To(beRoughly(bi.Pos.X + bi.Vel.X*dt))
				Expect(next[i].Pos.Y).To(beRoughly(bi.Pos.Y + bi.Vel.Y*dt))
			}
		})

		It("never modifies its input and keeps identity and order", func() {
			in := trinary()
			orig := in.Clone()

			next, err := g.Step(in, physics.DefaultDt)
			Expect(err).NotTo(HaveOccurred())
			Expect(in).To(Equal(orig))
			Expect(next).To(HaveLen(len(in)))
			for i := range in {
				Expect(next[i].Name).To(Equal(in[i].Name))
				Expect(next[i].Mass).To(Equal(in[i].Mass))
				Expect(next[i].Color).To(Equal(in[i].Color))
			}

			next[0].Pos = dynamo.Vec2{X: 42}
			Expect(in[0].Pos).To(Equal(orig[0].Pos))
		})

		It("reports coincident bodies instead of producing NaN", func() {
			bodies := dynamo.Bodies{
				{Name: "a", Mass: 1e30, Pos: dynamo.Vec2{X: 5}},
				{Name: "b", Mass: 1e30, Pos: dynamo.Vec2{X: 5}},
			}
			next, err := g.Step(bodies, physics.DefaultDt)
			Expect(err).To(MatchError(dynamo.ErrCoincident))
			Expect(err.Error()).To(ContainSubstring("a and b"))
			Expect(next).To(BeNil())
		})

		It("lets softening absorb coincident bodies", func() {
			g.Softening = 1e9
			bodies := dynamo.Bodies{
				{Name: "a", Mass: 1e30, Vel: dynamo.Vec2{X: 1}},
				{Name: "b", Mass: 1e30},
			}
			next, err := g.Step(bodies, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(next[0].Vel).To(Equal(dynamo.Vec2{X: 1}))
			Expect(next[1].Vel).To(Equal(dynamo.Vec2{}))
		})

		It("reports non-finite results as invalid state", func() {
			bodies := dynamo.Bodies{{Name: "a", Mass: 1, Vel: dynamo.Vec2{X: math.Inf(1)}}}
			_, err := g.Step(bodies, 1)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})

		It("produces identical results on the parallel path", func() {
			bodies := ring(40)
			serial := run(g, bodies, 20, 3600)

			par := physics.NewGravity()
			par.Workers = 4
			Expect(run(par, bodies, 20, 3600)).To(Equal(serial))
		})
	})

	Describe("testable properties", func() {
		It("is deterministic", func() {
			a := run(g, trinary(), 500, physics.DefaultDt)
			b := run(physics.NewGravity(), trinary(), 500, physics.DefaultDt)
			Expect(a).To(Equal(b))
		})

		It("keeps momentum drift bounded", func() {
			bodies := trinary()
			p0 := physics.Momentum(bodies)
			scale := 0.0
			for i := 0; i < 1000; i++ {
				bodies = run(g, bodies, 1, physics.DefaultDt)
				s := 0.0
				for _, b := range bodies {
					s += b.Momentum().Len()
				}
				scale = math.Max(scale, s)
			}
			drift := physics.Momentum(bodies).Sub(p0).Len()
			Expect(drift / scale).To(BeNumerically("<", 1e-9))
		})

		It("never reorders bodies", func() {
			bodies := trinary()
			names := bodies.Names()
			for i := 0; i < 200; i++ {
				bodies = run(g, bodies, 1, physics.DefaultDt)
				Expect(bodies.Names()).To(Equal(names))
			}
		})

		It("returns a circular two-body orbit to its start after one period", func() {
			pair, err := g.CircularOrbit(
				dynamo.Body{Name: "primary", Mass: 1e30},
				dynamo.Body{Name: "secondary", Mass: 1e29},
				1e11,
			)
			Expect(err).NotTo(HaveOccurred())

			dt := 300.0
			period := g.OrbitalPeriod(1e30, 1e29, 1e11)
			start := pair[1].Pos.Sub(pair[0].Pos)

			end := run(g, pair, int(math.Round(period/dt)), dt)
			rel := end[1].Pos.Sub(end[0].Pos)
			Expect(rel.Sub(start).Len() / start.Len()).To(BeNumerically("<", 0.01))
		})

		Context("with masses 1e30 and 1e29 kg at 1e11 m on a circular orbit", func() {
			var pair dynamo.Bodies

			BeforeEach(func() {
				var err error
				pair, err = g.CircularOrbit(
					dynamo.Body{Name: "primary", Mass: 1e30},
					dynamo.Body{Name: "secondary", Mass: 1e29},
					1e11,
				)
				Expect(err).NotTo(HaveOccurred())
			})

			It("stays within 1% of the separation over 100 hourly steps", func() {
				bodies := pair
				for i := 0; i < 100; i++ {
					bodies = run(g, bodies, 1, 3600)
					Expect(physics.Separation(bodies, 0, 1)).To(BeNumerically("~", 1e11, 1e9))
				}
			})

			It("drifts outward but stays bounded over 100 daily steps", func() {
				bodies := pair
				prev := physics.Separation(bodies, 0, 1)
				for i := 0; i < 100; i++ {
					bodies = run(g, bodies, 1, physics.DefaultDt)
					r := physics.Separation(bodies, 0, 1)
					Expect(r).To(BeNumerically(">=", prev))
					Expect(r).To(BeNumerically("<", 1.1e11))
					prev = r
				}
			})
		})
	})
})
