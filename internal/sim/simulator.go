package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/trail"
)

// Simulator owns the evolving body snapshot and trajectory buffers and
// threads them through the integrator once per tick. Ticks never overlap.
type Simulator struct {
	integrator Integrator
	cfg        Config
	logger     *zap.Logger
	metrics    []Metric
	observers  []Observer

	mu      sync.Mutex
	initial dynamo.Bodies
	bodies  dynamo.Bodies
	trails  *trail.Set
	t       float64
	step    int
	running bool
	cancel  context.CancelFunc
}

func New(integrator Integrator, bodies dynamo.Bodies, cfg Config, logger *zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := bodies.Validate(); err != nil {
		return nil, err
	}
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Simulator{
		integrator: integrator,
		cfg:        cfg,
		logger:     logger,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		initial:    bodies.Clone(),
		bodies:     bodies.Clone(),
		trails:     trail.NewSet(len(bodies), cfg.Capacity),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config { return s.cfg }

// Snapshot returns an independent copy of the current state.
func (s *Simulator) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() State {
	return State{
		Bodies: s.bodies.Clone(),
		Trails: s.trails.Snapshot(),
		Time:   s.t,
		Step:   s.step,
	}
}

// Tick advances the simulation by one step of Config.Dt and records one
// trajectory point per body. On failure the previous state is kept and a
// *dynamo.SimulationError is returned.
func (s *Simulator) Tick() (State, error) {
	start := time.Now()

	s.mu.Lock()
	next, err := s.integrator.Step(s.bodies, s.cfg.Dt)
	if err != nil {
		simErr := &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: err}
		s.mu.Unlock()
		s.logger.Error("step failed", zap.Int("step", simErr.Step), zap.Float64("time", simErr.Time), zap.Error(err))
		return State{}, simErr
	}
	if err := s.trails.Record(next.Positions()); err != nil {
		s.mu.Unlock()
		return State{}, &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: err}
	}
	s.bodies = next
	s.t += s.cfg.Dt
	s.step++

	for _, m := range s.metrics {
		m.Observe(s.bodies, s.t)
	}

	var state State
	if len(s.observers) > 0 {
		state = s.snapshotLocked()
	} else {
		state = State{Bodies: s.bodies, Time: s.t, Step: s.step}
	}
	s.mu.Unlock()

	state.Elapsed = time.Since(start)
	for _, o := range s.observers {
		o.OnStep(state)
	}
	return state, nil
}

// Start ticks every Config.Interval until ctx is done, Stop is called or
// a step fails. Stopping leaves the computed state untouched.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	s.logger.Debug("simulation started", zap.Duration("interval", s.cfg.Interval), zap.Float64("dt", s.cfg.Dt))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			s.logger.Debug("simulation stopped", zap.Int("step", s.Snapshot().Step))
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// Stop ends a running Start loop. It is a no-op when stopped.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reset restores the initial snapshot, or installs bodies as the new
// initial snapshot when non-nil, and clears all trajectories.
func (s *Simulator) Reset(bodies dynamo.Bodies) error {
	if bodies != nil {
		if err := bodies.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bodies != nil {
		s.initial = bodies.Clone()
	}
	s.bodies = s.initial.Clone()
	if s.trails.Size() != len(s.bodies) {
		s.trails = trail.NewSet(len(s.bodies), s.cfg.Capacity)
	} else {
		s.trails.Reset()
	}
	s.t = 0
	s.step = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	return nil
}

// Run performs steps ticks back to back, sampling every
// Config.SampleEvery steps. A failing step ends the run early and is
// reported in Result.Errors.
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		steps = 0
	}

	initial := s.Snapshot()
	samples := steps/s.cfg.SampleEvery + 1
	result := &Result{
		States:  make([]dynamo.Bodies, 0, samples),
		Times:   make([]float64, 0, samples),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	result.States = append(result.States, initial.Bodies)
	result.Times = append(result.Times, initial.Time)

	initialEnergy := s.computeEnergy(initial.Bodies)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Final = s.Snapshot()
			return result, ctx.Err()
		default:
		}

		state, err := s.Tick()
		if err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		result.StepsTaken++

		if result.StepsTaken%s.cfg.SampleEvery == 0 {
			result.States = append(result.States, state.Bodies.Clone())
			result.Times = append(result.Times, state.Time)
		}
	}

	result.Final = s.Snapshot()

	finalEnergy := s.computeEnergy(result.Final.Bodies)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("sim_time", result.Final.Time),
		zap.Float64("energy_drift", result.EnergyDrift),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func (s *Simulator) computeEnergy(bodies dynamo.Bodies) float64 {
	if h, ok := s.integrator.(Hamiltonian); ok {
		return h.Energy(bodies)
	}
	return 0
}
