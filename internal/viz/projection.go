package viz

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

const (
	// StarMass separates stars from planets when choosing a marker size;
	// it is roughly the hydrogen-burning limit.
	StarMass = 1.5e29

	starRadius   = 2
	planetRadius = 1

	zoomFactor = 1.25
)

// Projection maps metres to canvas pixels linearly, y axis up:
//
//	sx = CenterX + x/Scale
//	sy = CenterY - y/Scale
//
// Scale is in metres per pixel.
type Projection struct {
	Scale   float64
	CenterX float64
	CenterY float64
}

// NewProjection centres the origin on a w x h pixel area.
func NewProjection(scale float64, w, h int) Projection {
	return Projection{Scale: scale, CenterX: float64(w) / 2, CenterY: float64(h) / 2}
}

func (p Projection) Project(v dynamo.Vec2) (int, int) {
	x := p.CenterX + v.X/p.Scale
	y := p.CenterY - v.Y/p.Scale
	return int(math.Floor(x)), int(math.Floor(y))
}

func (p Projection) ZoomIn() Projection {
	p.Scale /= zoomFactor
	return p
}

func (p Projection) ZoomOut() Projection {
	p.Scale *= zoomFactor
	return p
}

// FitScale returns the smallest scale that keeps every body, and the
// origin, inside a w x h pixel area with the given fraction left as margin.
func FitScale(bodies dynamo.Bodies, w, h int, margin float64) float64 {
	var extentX, extentY float64
	for _, b := range bodies {
		extentX = math.Max(extentX, math.Abs(b.Pos.X))
		extentY = math.Max(extentY, math.Abs(b.Pos.Y))
	}
	usableX := float64(w) / 2 * (1 - margin)
	usableY := float64(h) / 2 * (1 - margin)
	if usableX <= 0 || usableY <= 0 {
		return 1
	}

	scale := math.Max(extentX/usableX, extentY/usableY)
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 1
	}
	return scale
}

// MarkerRadius is the drawn radius of a body in pixels: stars are drawn
// twice as large as planets.
func MarkerRadius(b dynamo.Body) int {
	if b.Mass >= StarMass {
		return starRadius
	}
	return planetRadius
}
