package analysis

import (
	"math"

	"github.com/dae-go/daesolve/internal/canvas"
	"github.com/dae-go/daesolve/internal/resultassembler"
)

// PhasePortrait2D holds the projection of a solved trajectory onto two
// state components.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []struct{ X, Y float64 }
}

// GeneratePhasePortrait projects a solved trajectory's Y history onto
// two component indices. Unlike a live simulation loop, it consumes an
// already-integrated resultassembler.SolutionData rather than stepping a
// system itself: the driver has already produced the adaptive-step
// history this trajectory needs.
func GeneratePhasePortrait(sd *resultassembler.SolutionData, xIdx, yIdx int) *PhasePortrait2D {
	if sd == nil || len(sd.Y) == 0 || xIdx >= sd.LengthOfReturnVector || yIdx >= sd.LengthOfReturnVector {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]struct{ X, Y float64 }, 0, len(sd.Y)),
	}

	for _, row := range sd.Y {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{X: row[xIdx], Y: row[yIdx]})
	}

	return portrait
}

// PhasePortraitToASCII converts a phase portrait to ASCII art.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX, minY, maxY := canvas.Bounds2D(portrait.Points, 0.1)

	grid := canvas.NewGrid(width, height)
	for _, p := range portrait.Points {
		grid.PlotXY(p.X, p.Y, minX, maxX, minY, maxY, '•')
	}
	grid.DrawAxes(minX, maxX, minY, maxY)

	return grid.String()
}

// PoincareSection records points where a solved trajectory crosses a
// threshold on one component, going positive.
type PoincareSection struct {
	Points []struct{ X, Y float64 }
}

// GeneratePoincareSection scans a solved trajectory's recorded samples
// for positive-going crossings of threshold on crossIdx, recording
// (recordX, recordY) at each crossing via linear interpolation between
// the two bracketing samples. Because the crossing is located between
// already-recorded points rather than by stepping the back-end directly,
// its accuracy is bounded by the trajectory's save density; a caller
// after tighter localization should use driver.Driver's own root-event
// support instead.
func GeneratePoincareSection(sd *resultassembler.SolutionData, crossIdx, recordX, recordY int, threshold float64) *PoincareSection {
	if sd == nil || len(sd.Y) < 2 {
		return nil
	}
	if crossIdx >= sd.LengthOfReturnVector || recordX >= sd.LengthOfReturnVector || recordY >= sd.LengthOfReturnVector {
		return nil
	}

	section := &PoincareSection{Points: make([]struct{ X, Y float64 }, 0)}

	prevVal := sd.Y[0][crossIdx]
	for i := 1; i < len(sd.Y); i++ {
		currVal := sd.Y[i][crossIdx]

		if prevVal < threshold && currVal >= threshold {
			frac := (threshold - prevVal) / (currVal - prevVal)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			x := sd.Y[i-1][recordX] + frac*(sd.Y[i][recordX]-sd.Y[i-1][recordX])
			y := sd.Y[i-1][recordY] + frac*(sd.Y[i][recordY]-sd.Y[i-1][recordY])
			section.Points = append(section.Points, struct{ X, Y float64 }{X: x, Y: y})
		}

		prevVal = currVal
	}

	return section
}

// PoincareSectionToASCII converts section data to ASCII art, reusing the
// phase portrait renderer.
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	portrait := &PhasePortrait2D{Points: section.Points}
	return PhasePortraitToASCII(portrait, width, height)
}
