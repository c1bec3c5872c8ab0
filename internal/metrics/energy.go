package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

// EnergyDrift tracks the largest relative deviation of total energy from
// the first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	h             sim.Hamiltonian
}

func NewEnergyDrift(h sim.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		h:    h,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(bodies dynamo.Bodies, t float64) {
	energy := e.h.Energy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change of total linear momentum,
// relative to the sum of per-body momentum magnitudes seen so far.
type MomentumDrift struct {
	initial  dynamo.Vec2
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(bodies dynamo.Bodies, t float64) {
	p := physics.Momentum(bodies)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	var s float64
	for _, b := range bodies {
		s += b.Momentum().Len()
	}
	m.scale = math.Max(m.scale, s)

	if m.scale > 0 {
		m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len()/m.scale)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vec2{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

// Separation records the distance between two bodies, by index. Value is
// the latest distance; Min and Max cover every observation since Reset.
type Separation struct {
	name    string
	a, b    int
	last    float64
	min     float64
	max     float64
	samples int
}

func NewSeparation(a, b int) *Separation {
	return &Separation{name: "separation", a: a, b: b}
}

func (s *Separation) Name() string { return s.name }

func (s *Separation) Observe(bodies dynamo.Bodies, t float64) {
	if s.a >= len(bodies) || s.b >= len(bodies) {
		return
	}
	r := physics.Separation(bodies, s.a, s.b)
	if s.samples == 0 {
		s.min, s.max = r, r
	}
	s.last = r
	s.min = math.Min(s.min, r)
	s.max = math.Max(s.max, r)
	s.samples++
}

func (s *Separation) Value() float64 { return s.last }
func (s *Separation) Min() float64   { return s.min }
func (s *Separation) Max() float64   { return s.max }

func (s *Separation) Reset() {
	s.last, s.min, s.max = 0, 0, 0
	s.samples = 0
}
