// Package physics integrates point masses under Newtonian gravity.
//
// [Gravity.Step] is a pure function from one [dynamo.Bodies] snapshot to
// the next. The net force on every body is summed pairwise over all other
// bodies (O(N^2), intended for a handful of bodies), then every body is
// advanced with
//
//	v' = v + F/m * dt
//	x' = x + v * dt
//
// where the position update deliberately uses the velocity from the start
// of the step. Changing that ordering changes the numerical scheme.
//
// # Coincident Bodies
//
// With zero softening, a pair at zero separation makes [Gravity.Step]
// return [dynamo.ErrCoincident] instead of producing Inf/NaN. Any
// non-finite result is reported as [dynamo.ErrInvalidState]. A positive
// [Gravity.Softening] replaces r^2 with r^2+eps^2 in the force law.
//
// # Diagnostics
//
// Energy, momentum, angular momentum and centre of mass helpers are
// provided for drift monitoring:
//
//	g := physics.NewGravity()
//	e0 := g.Energy(bodies)
//	next, err := g.Step(bodies, physics.DefaultDt)
package physics
