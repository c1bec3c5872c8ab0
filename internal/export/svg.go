package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/viz"
)

const (
	background  = "#111111"
	padFraction = 0.05
	markerScale = 4.0
)

// TrajectoriesToSVG draws one polyline per body in the body's color, with
// a marker at the final position. All trails share one uniform scale so
// orbits keep their shape, and the y axis points up. trails[i] belongs to
// bodies[i].
func TrajectoriesToSVG(bodies dynamo.Bodies, trails [][]dynamo.Vec2, width, height int) string {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, tr := range trails {
		for _, p := range tr {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	if math.IsInf(minX, 1) {
		sb.WriteString("</svg>\n")
		return sb.String()
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	w := float64(width) * (1 - 2*padFraction)
	h := float64(height) * (1 - 2*padFraction)
	scale := math.Min(w/rangeX, h/rangeY)
	offX := (float64(width) - rangeX*scale) / 2
	offY := (float64(height) - rangeY*scale) / 2

	project := func(p dynamo.Vec2) (float64, float64) {
		return offX + (p.X-minX)*scale, float64(height) - offY - (p.Y-minY)*scale
	}

	for i, tr := range trails {
		if len(tr) == 0 || i >= len(bodies) {
			continue
		}
		color := bodies[i].Color

		if len(tr) > 1 {
			sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.8" d="M`, color))
			for j, p := range tr {
				x, y := project(p)
				if j == 0 {
					sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
				} else {
					sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
				}
			}
			sb.WriteString("\"/>\n")
		}

		x, y := project(tr[len(tr)-1])
		r := float64(viz.MarkerRadius(bodies[i])) * markerScale
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.0f" fill="%s"><title>%s</title></circle>
`, x, y, r, color, escape(bodies[i].Name)))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return xmlEscaper.Replace(s) }
