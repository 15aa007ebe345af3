// Package export renders a solved trajectory as SVG for viewing outside
// a terminal.
package export

import (
	"fmt"
	"strings"

	"github.com/dae-go/daesolve/internal/canvas"
	"github.com/dae-go/daesolve/internal/resultassembler"
)

// TrajectoryToSVG renders a set of (x, y) points as a stroked path.
func TrajectoryToSVG(points []struct{ X, Y float64 }, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX, minY, maxY := canvas.Bounds2D(points, 0.1)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SolutionToSVG projects two state components of a solved trajectory and
// renders them as an SVG path, the way a caller would plot a phase-space
// or output-vs-output view of a completed solve.
func SolutionToSVG(sd *resultassembler.SolutionData, xIdx, yIdx, width, height int, strokeColor string) string {
	if sd == nil || xIdx >= sd.LengthOfReturnVector || yIdx >= sd.LengthOfReturnVector {
		return ""
	}
	points := make([]struct{ X, Y float64 }, 0, len(sd.Y))
	for _, row := range sd.Y {
		points = append(points, struct{ X, Y float64 }{X: row[xIdx], Y: row[yIdx]})
	}
	return TrajectoryToSVG(points, width, height, strokeColor)
}
