// Package viz renders a running simulation in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: live view fed by [sim.Simulator] snapshots
//   - [Canvas]: Braille-based pixel canvas with per-cell colors
//   - [Projection]: linear metres-to-pixels mapping with the y axis up
//   - [Picker]: scenario menu shown before going live
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	+/-   - Zoom in/out
//	C     - Fit all bodies in view
//	T     - Cycle color themes
//	Q     - Quit
//
// Bodies are drawn as filled discs, stars larger than planets, over the
// trail recorded for each body in the body's own color.
package viz
