package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trail"
)

// DefaultInterval is the wall-clock time between ticks.
const DefaultInterval = 50 * time.Millisecond

var ErrAlreadyRunning = errors.New("sim: simulator already running")

// Integrator advances a snapshot by dt without retaining it.
type Integrator interface {
	Step(bodies dynamo.Bodies, dt float64) (dynamo.Bodies, error)
}

// Hamiltonian is implemented by integrators that can report total energy.
type Hamiltonian interface {
	Energy(bodies dynamo.Bodies) float64
}

type Metric interface {
	Name() string
	Observe(bodies dynamo.Bodies, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every successful tick, outside the
// simulator's lock.
type Observer interface {
	OnStep(s State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(State)

func (f ObserverFunc) OnStep(s State) { f(s) }

// State is what a renderer reads: the current bodies and their
// trajectories, index-aligned.
type State struct {
	Bodies  dynamo.Bodies
	Trails  [][]dynamo.Vec2
	Time    float64
	Step    int
	Elapsed time.Duration
}

type Config struct {
	Dt          float64
	Interval    time.Duration
	Capacity    int
	SampleEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:          physics.DefaultDt,
		Interval:    DefaultInterval,
		Capacity:    trail.DefaultCapacity,
		SampleEvery: 1,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v: %w", c.Interval, dynamo.ErrParameterBounds)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("trail capacity must be positive, got %d: %w", c.Capacity, dynamo.ErrParameterBounds)
	}
	return nil
}

type Result struct {
	States      []dynamo.Bodies
	Times       []float64
	Final       State
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}
