package trail

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// DefaultCapacity is the number of points kept per body.
const DefaultCapacity = 1000

// Record appends positions[i] to buffers[i] and drops the oldest points
// so that no trajectory exceeds capacity. The input is never modified and
// the result shares no backing arrays with it.
func Record(buffers [][]dynamo.Vec2, positions []dynamo.Vec2, capacity int) ([][]dynamo.Vec2, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d: %w", capacity, dynamo.ErrParameterBounds)
	}
	if len(buffers) != len(positions) {
		return nil, fmt.Errorf("%d trajectories for %d positions: %w", len(buffers), len(positions), dynamo.ErrDimensionMismatch)
	}

	out := make([][]dynamo.Vec2, len(buffers))
	for i, buf := range buffers {
		keep := buf
		if len(keep) >= capacity {
			keep = keep[len(keep)-capacity+1:]
		}
		next := make([]dynamo.Vec2, len(keep)+1)
		copy(next, keep)
		next[len(keep)] = positions[i]
		out[i] = next
	}
	return out, nil
}
