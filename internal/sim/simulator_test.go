package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

// driftIntegrator moves every body by its velocity and counts calls.
type driftIntegrator struct {
	calls  int
	failAt int
}

func (d *driftIntegrator) Step(bodies dynamo.Bodies, dt float64) (dynamo.Bodies, error) {
	d.calls++
	if d.failAt > 0 && d.calls == d.failAt {
		return nil, dynamo.ErrCoincident
	}
	next := make(dynamo.Bodies, len(bodies))
	for i, b := range bodies {
		next[i] = b.Advance(b.Pos.Add(b.Vel.Scale(dt)), b.Vel)
	}
	return next, nil
}

func testBodies() dynamo.Bodies {
	return dynamo.Bodies{
		{Name: "a", Mass: 1, Vel: dynamo.Vec2{X: 1}},
		{Name: "b", Mass: 2, Pos: dynamo.Vec2{Y: 10}, Vel: dynamo.Vec2{Y: -1}},
	}
}

func testConfig() Config {
	return Config{Dt: 1, Interval: time.Millisecond, Capacity: 3, SampleEvery: 1}
}

type countMetric struct {
	count int
	last  float64
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(bodies dynamo.Bodies, t float64) {
	c.count++
	c.last = t
}
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count = 0 }

func TestNewRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		bodies dynamo.Bodies
	}{
		{"zero dt", Config{Dt: 0, Interval: time.Second, Capacity: 1}, testBodies()},
		{"zero interval", Config{Dt: 1, Interval: 0, Capacity: 1}, testBodies()},
		{"zero capacity", Config{Dt: 1, Interval: time.Second, Capacity: 0}, testBodies()},
		{"zero mass", testConfig(), dynamo.Bodies{{Name: "a", Mass: 0}}},
		{"coincident", testConfig(), dynamo.Bodies{{Name: "a", Mass: 1}, {Name: "b", Mass: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&driftIntegrator{}, tt.bodies, tt.cfg, nil); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTickThreadsState(t *testing.T) {
	s, err := New(&driftIntegrator{}, testBodies(), testConfig(), nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	for i := 1; i <= 5; i++ {
		state, err := s.Tick()
		if err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
		if state.Step != i {
			t.Errorf("expected step %d, got %d", i, state.Step)
		}
		if state.Bodies[0].Pos.X != float64(i) {
			t.Errorf("expected x=%d, got %f", i, state.Bodies[0].Pos.X)
		}
	}

	snap := s.Snapshot()
	if snap.Time != 5 {
		t.Errorf("expected time 5, got %f", snap.Time)
	}
	for i, tr := range snap.Trails {
		if len(tr) != 3 {
			t.Errorf("trail %d: expected capacity-bounded length 3, got %d", i, len(tr))
		}
		if tr[len(tr)-1] != snap.Bodies[i].Pos {
			t.Errorf("trail %d: last point %v is not current position %v", i, tr[len(tr)-1], snap.Bodies[i].Pos)
		}
	}
	if snap.Trails[0][0].X != 3 {
		t.Errorf("expected oldest kept point x=3, got %f", snap.Trails[0][0].X)
	}
}

func TestTickFailureKeepsState(t *testing.T) {
	integ := &driftIntegrator{failAt: 3}
	s, _ := New(integ, testBodies(), testConfig(), nil)

	s.Tick()
	s.Tick()
	before := s.Snapshot()

	_, err := s.Tick()
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if simErr.Step != 2 {
		t.Errorf("expected failing step 2, got %d", simErr.Step)
	}
	if !errors.Is(err, dynamo.ErrCoincident) {
		t.Errorf("expected wrapped ErrCoincident, got %v", err)
	}

	after := s.Snapshot()
	if after.Step != before.Step || after.Bodies[0].Pos != before.Bodies[0].Pos {
		t.Error("state changed after failed tick")
	}
}

func TestObserversReceiveIndependentState(t *testing.T) {
	s, _ := New(&driftIntegrator{}, testBodies(), testConfig(), nil)

	var got []State
	s.AddObserver(ObserverFunc(func(st State) { got = append(got, st) }))

	s.Tick()
	s.Tick()

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	got[0].Trails[0][0] = dynamo.Vec2{X: 99}
	if s.Snapshot().Trails[0][0].X == 99 {
		t.Error("observer state aliases simulator trails")
	}
	if len(got[1].Trails[0]) != 2 {
		t.Errorf("expected 2 trail points, got %d", len(got[1].Trails[0]))
	}
}

func TestRunCollectsSamplesAndMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.SampleEvery = 2
	s, _ := New(&driftIntegrator{}, testBodies(), cfg, nil)

	metric := &countMetric{}
	s.AddMetric(metric)

	result, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.States) != 6 || len(result.Times) != 6 {
		t.Errorf("expected 6 samples, got %d states / %d times", len(result.States), len(result.Times))
	}
	if result.Times[5] != 10 {
		t.Errorf("expected last sample at t=10, got %f", result.Times[5])
	}
	if result.Metrics["count"] != 10 {
		t.Errorf("expected 10 observations, got %f", result.Metrics["count"])
	}
	if metric.last != 10 {
		t.Errorf("expected metric to see t=10, got %f", metric.last)
	}
}

func TestRunStopsAtFailure(t *testing.T) {
	s, _ := New(&driftIntegrator{failAt: 4}, testBodies(), testConfig(), nil)

	result, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 3 {
		t.Errorf("expected 3 steps, got %d", result.StepsTaken)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(result.Errors))
	}
	if result.Final.Step != 3 {
		t.Errorf("expected final step 3, got %d", result.Final.Step)
	}
}

func TestRunHonorsContext(t *testing.T) {
	s, _ := New(&driftIntegrator{}, testBodies(), testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", result.StepsTaken)
	}
}

func TestRunReportsEnergyDrift(t *testing.T) {
	g := physics.NewGravity()
	pair, err := g.CircularOrbit(dynamo.Body{Name: "p", Mass: 1e30}, dynamo.Body{Name: "s", Mass: 1e29}, 1e11)
	if err != nil {
		t.Fatalf("orbit failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Dt = 3600
	s, err := New(g, pair, cfg, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	result, err := s.Run(context.Background(), 100)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.EnergyDrift <= 0 || result.EnergyDrift > 1e-3 {
		t.Errorf("expected small positive energy drift, got %g", result.EnergyDrift)
	}
}

func TestStartStop(t *testing.T) {
	s, _ := New(&driftIntegrator{}, testBodies(), testConfig(), nil)

	var ticks int32
	s.AddObserver(ObserverFunc(func(State) { atomic.AddInt32(&ticks, 1) }))

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&ticks) < 3 {
		select {
		case <-deadline:
			t.Fatal("simulator did not tick")
		case <-time.After(time.Millisecond):
		}
	}

	if !s.Running() {
		t.Error("expected running")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	s.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil after Stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if s.Running() {
		t.Error("expected stopped")
	}
	step := s.Snapshot().Step
	time.Sleep(10 * time.Millisecond)
	if s.Snapshot().Step != step {
		t.Error("simulator ticked after Stop")
	}
}

func TestStartReturnsStepError(t *testing.T) {
	s, _ := New(&driftIntegrator{failAt: 2}, testBodies(), testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Start(ctx)
	if !errors.Is(err, dynamo.ErrCoincident) {
		t.Errorf("expected ErrCoincident, got %v", err)
	}
	if s.Snapshot().Step != 1 {
		t.Errorf("expected 1 completed step, got %d", s.Snapshot().Step)
	}
}

func TestReset(t *testing.T) {
	s, _ := New(&driftIntegrator{}, testBodies(), testConfig(), nil)
	metric := &countMetric{}
	s.AddMetric(metric)

	s.Tick()
	s.Tick()
	if err := s.Reset(nil); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.Step != 0 || snap.Time != 0 {
		t.Errorf("expected step 0 / time 0, got %d / %f", snap.Step, snap.Time)
	}
	if snap.Bodies[0].Pos != (dynamo.Vec2{}) {
		t.Errorf("expected initial position, got %v", snap.Bodies[0].Pos)
	}
	if len(snap.Trails[0]) != 0 {
		t.Errorf("expected empty trails, got %d points", len(snap.Trails[0]))
	}
	if metric.count != 0 {
		t.Error("metric not reset")
	}

	three := append(testBodies(), dynamo.Body{Name: "c", Mass: 1, Pos: dynamo.Vec2{X: 5}})
	if err := s.Reset(three); err != nil {
		t.Fatalf("reset with new bodies failed: %v", err)
	}
	if len(s.Snapshot().Trails) != 3 {
		t.Error("trails not resized to new body count")
	}
	if err := s.Reset(dynamo.Bodies{{Name: "x", Mass: -1}}); err == nil {
		t.Error("expected error for invalid bodies")
	}
}
