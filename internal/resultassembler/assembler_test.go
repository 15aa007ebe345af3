package resultassembler_test

import (
	"testing"

	"github.com/dae-go/daesolve/internal/outputs"
	"github.com/dae-go/daesolve/internal/recorder"
	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/status"
)

func TestAssembleFullStateCopiesThrough(t *testing.T) {
	frozen := recorder.Frozen{
		Width: 2,
		T:     []float64{0, 1},
		Y:     [][]float64{{1, 2}, {3, 4}},
	}
	sd := resultassembler.Assemble(outputs.FullState, frozen, status.Success, 2, []float64{3, 4})
	if sd.NumberOfTimesteps != 2 || sd.LengthOfReturnVector != 2 {
		t.Fatalf("shape = %d/%d, want 2/2", sd.NumberOfTimesteps, sd.LengthOfReturnVector)
	}
	if sd.YTerm != nil {
		t.Fatalf("YTerm should only be recorded in outputs-only mode, got %v", sd.YTerm)
	}
	if sd.S != nil {
		t.Fatalf("S should be nil when the recorder carried no sensitivity tensor")
	}
}

func TestAssembleOutputsOnlyRecordsYTerm(t *testing.T) {
	frozen := recorder.Frozen{
		Width: 1,
		T:     []float64{0, 1},
		Y:     [][]float64{{1}, {2}},
	}
	sd := resultassembler.Assemble(outputs.OutputsOnly, frozen, status.Success, 2, []float64{5, 6})
	if len(sd.YTerm) != 2 || sd.YTerm[0] != 5 || sd.YTerm[1] != 6 {
		t.Fatalf("YTerm = %v, want [5 6]", sd.YTerm)
	}
}

// TestAssembleFullStateAxisFlip pins the full-state sensitivity layout:
// recorder-native rows are [i][p][j] (per-snapshot, per-param, per-state);
// SolutionData.S must come out [p][i][j] (per-param, per-snapshot,
// per-state), the axis order internal/store and internal/export consume.
func TestAssembleFullStateAxisFlip(t *testing.T) {
	// 2 snapshots, 2 params, 3 states. S[i][p][j] = 100*i + 10*p + j.
	nSnap, nParams, width := 2, 2, 3
	s := make([][][]float64, nSnap)
	for i := 0; i < nSnap; i++ {
		s[i] = make([][]float64, nParams)
		for p := 0; p < nParams; p++ {
			s[i][p] = make([]float64, width)
			for j := 0; j < width; j++ {
				s[i][p][j] = float64(100*i + 10*p + j)
			}
		}
	}
	frozen := recorder.Frozen{
		Width:   width,
		NParams: nParams,
		T:       []float64{0, 1},
		Y:       [][]float64{{0, 0, 0}, {0, 0, 0}},
		S:       s,
	}
	sd := resultassembler.Assemble(outputs.FullState, frozen, status.Success, width, nil)
	if sd.SensAxisTriple != (resultassembler.AxisTriple{nParams, nSnap, width}) {
		t.Fatalf("axis triple = %v, want (%d,%d,%d)", sd.SensAxisTriple, nParams, nSnap, width)
	}
	for i := 0; i < nSnap; i++ {
		for p := 0; p < nParams; p++ {
			for j := 0; j < width; j++ {
				want := float64(100*i + 10*p + j)
				if sd.S[p][i][j] != want {
					t.Fatalf("S[%d][%d][%d] = %g, want %g", p, i, j, sd.S[p][i][j], want)
				}
			}
		}
	}
}

// TestAssembleOutputsOnlyAxisFlip pins the outputs-only layout: recorder
// rows are [i][p][l]; SolutionData.S must come out [i][l][p].
func TestAssembleOutputsOnlyAxisFlip(t *testing.T) {
	nSnap, nParams, width := 2, 3, 2
	s := make([][][]float64, nSnap)
	for i := 0; i < nSnap; i++ {
		s[i] = make([][]float64, nParams)
		for p := 0; p < nParams; p++ {
			s[i][p] = make([]float64, width)
			for l := 0; l < width; l++ {
				s[i][p][l] = float64(100*i + 10*p + l)
			}
		}
	}
	frozen := recorder.Frozen{
		Width:   width,
		NParams: nParams,
		T:       []float64{0, 1},
		Y:       [][]float64{{0, 0}, {0, 0}},
		S:       s,
	}
	sd := resultassembler.Assemble(outputs.OutputsOnly, frozen, status.Success, width, []float64{0, 0})
	if sd.SensAxisTriple != (resultassembler.AxisTriple{nSnap, width, nParams}) {
		t.Fatalf("axis triple = %v, want (%d,%d,%d)", sd.SensAxisTriple, nSnap, width, nParams)
	}
	for i := 0; i < nSnap; i++ {
		for l := 0; l < width; l++ {
			for p := 0; p < nParams; p++ {
				want := float64(100*i + 10*p + l)
				if sd.S[i][l][p] != want {
					t.Fatalf("S[%d][%d][%d] = %g, want %g", i, l, p, sd.S[i][l][p], want)
				}
			}
		}
	}
}
