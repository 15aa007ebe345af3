package analysis_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dae-go/daesolve/internal/analysis"
	"github.com/dae-go/daesolve/internal/resultassembler"
)

func settledRun(value float64) *resultassembler.SolutionData {
	return &resultassembler.SolutionData{
		LengthOfReturnVector: 1,
		T:                    []float64{0, 1, 2},
		Y:                    [][]float64{{value}, {value}, {value}},
	}
}

func TestBifurcationDiagramSweepsAndRecordsSettledValues(t *testing.T) {
	runner := func(param float64) (*resultassembler.SolutionData, error) {
		return settledRun(param * 2), nil
	}
	points := analysis.BifurcationDiagram(runner, 0, 1, 5, 0)
	if len(points) != 5 {
		t.Fatalf("points = %d, want 5", len(points))
	}
	if points[0].Param != 0 || points[len(points)-1].Param != 1 {
		t.Fatalf("sweep endpoints = %g,%g, want 0,1", points[0].Param, points[len(points)-1].Param)
	}
	for _, p := range points {
		if len(p.Values) != 1 {
			t.Fatalf("settled distinct values for param %g = %d, want 1 (a constant trajectory)", p.Param, len(p.Values))
		}
	}
}

func TestBifurcationDiagramSkipsFailedRuns(t *testing.T) {
	runner := func(param float64) (*resultassembler.SolutionData, error) {
		if param > 0.4 {
			return nil, errors.New("solve failed")
		}
		return settledRun(param), nil
	}
	points := analysis.BifurcationDiagram(runner, 0, 1, 5, 0)
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2 surviving runs", len(points))
	}
}

func TestBifurcationDiagramSkipsOutOfRangeStateIndex(t *testing.T) {
	runner := func(param float64) (*resultassembler.SolutionData, error) {
		return settledRun(param), nil
	}
	points := analysis.BifurcationDiagram(runner, 0, 1, 3, 5)
	if len(points) != 0 {
		t.Fatalf("points = %d, want 0 when stateIndex is out of range", len(points))
	}
}

func TestBifurcationToASCIIProducesRequestedGrid(t *testing.T) {
	data := []analysis.BifurcationPoint{
		{Param: 0, Values: []float64{0, 1}},
		{Param: 1, Values: []float64{2}},
	}
	art := analysis.BifurcationToASCII(data, 20, 8)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("rows = %d, want 8", len(lines))
	}
	if !strings.ContainsRune(art, '•') {
		t.Fatalf("expected at least one plotted point")
	}
}

func TestBifurcationToASCIIEmptyInput(t *testing.T) {
	if got := analysis.BifurcationToASCII(nil, 10, 10); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
