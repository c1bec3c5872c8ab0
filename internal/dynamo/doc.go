// Package dynamo provides the core value types shared by the simulator.
//
// The package defines the authoritative body representation and the
// primitives every other package builds on:
//
//   - [Vec2]: 2D vector in simulation units (metres, metres per second)
//   - [Body]: point mass with identity, kinematic state and display color
//   - [Bodies]: ordered snapshot of the simulated system
//   - [SimulationError]: step failure with simulation context
//
// # Snapshots
//
// A [Bodies] value is treated as immutable once handed to the integrator.
// Every step produces a fresh slice; identity (name, mass, color) is copied
// through unchanged and the index of a body never changes during a run.
//
//	bodies := dynamo.Bodies{
//	    {Name: "Sun", Mass: 1.989e30, Color: "#FFD700"},
//	    {Name: "Earth", Mass: 5.972e24, Pos: dynamo.Vec2{X: 1.496e11}, Vel: dynamo.Vec2{Y: 29780}},
//	}
//	if err := bodies.Validate(); err != nil { ... }
//
// # Thread Safety
//
// Snapshots are safe to read from multiple goroutines as long as nobody
// writes to them, which is the contract every package in this module follows.
package dynamo
