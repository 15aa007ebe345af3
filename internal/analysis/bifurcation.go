package analysis

import (
	"github.com/dae-go/daesolve/internal/canvas"
	"github.com/dae-go/daesolve/internal/resultassembler"
)

// BifurcationPoint represents the distinct values a state component
// settles into for one parameter value.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// Runner solves one problem instance for the given parameter value and
// returns the trajectory over the recording window only (the caller is
// expected to have already discarded any settling transient via its own
// t_eval choice).
type Runner func(paramValue float64) (*resultassembler.SolutionData, error)

// BifurcationDiagram sweeps a parameter through run and records the
// distinct values a state component takes across each run's recording
// window. Useful for visualising transitions to chaos.
func BifurcationDiagram(run Runner, paramMin, paramMax float64, paramSteps, stateIndex int) []BifurcationPoint {
	if paramSteps <= 1 {
		paramSteps = 2
	}
	paramStep := (paramMax - paramMin) / float64(paramSteps-1)

	results := make([]BifurcationPoint, 0, paramSteps)

	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*paramStep

		sd, err := run(param)
		if err != nil || sd == nil {
			continue
		}
		if stateIndex >= sd.LengthOfReturnVector {
			continue
		}

		values := make([]float64, 0, len(sd.Y))
		seen := make(map[int]bool)
		for _, row := range sd.Y {
			val := row[stateIndex]
			key := int(val * 1000)
			if !seen[key] {
				seen[key] = true
				values = append(values, val)
			}
		}

		results = append(results, BifurcationPoint{Param: param, Values: values})
	}

	return results
}

// BifurcationToASCII converts bifurcation data to ASCII art. Unlike a
// phase portrait, the horizontal axis here is the sweep index rather
// than a plotted X value, so only the vertical (settled-value) scaling
// comes from the shared canvas helpers.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var allValues []float64
	for _, p := range data {
		allValues = append(allValues, p.Values...)
	}
	if len(allValues) == 0 {
		return ""
	}
	minVal, maxVal := canvas.Bounds1D(allValues, 0)

	grid := canvas.NewGrid(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := canvas.ScaleRow(v, minVal, maxVal, height)
			grid.Set(row, col, '•')
		}
	}

	return grid.String()
}
