// Package resultassembler takes ownership of StepRecorder's frozen
// buffers, records the dimensional parameters, and produces the
// immutable SolutionData result handed to the caller.
package resultassembler

import (
	"github.com/dae-go/daesolve/internal/outputs"
	"github.com/dae-go/daesolve/internal/recorder"
	"github.com/dae-go/daesolve/internal/status"
)

// AxisTriple names the three axes of the sensitivity tensor. Full-state
// mode uses (n_params, N, n_states); outputs-only mode uses
// (N, L, n_params) — the flip is a long-standing external contract
// preserved here rather than "fixed".
type AxisTriple [3]int

// SolutionData is the immutable, owning result handed to the caller.
// Its buffers are safe to use after the driver and its back-end have
// been closed.
type SolutionData struct {
	Flag                  status.Flag
	NumberOfTimesteps     int
	LengthOfReturnVector  int
	SensAxisTriple        AxisTriple
	LengthOfFinalSVSlice  int
	SaveHermite           bool

	T []float64
	// Y is row-major: Y[i] is snapshot i, length LengthOfReturnVector.
	Y [][]float64
	// Yp mirrors Y, present only in full-state mode when SaveHermite is
	// true.
	Yp [][]float64

	// S holds the sensitivity tensor, laid out per SensAxisTriple:
	//   full-state:   S[p][i][j]  (n_params, N, n_states)
	//   outputs-only: S[i][l][p]  (N, L, n_params)
	// nil when sensitivities are disabled.
	S [][][]float64
	// Sp mirrors S using SensAxisTriple's full-state ordering; only
	// populated in full-state + Hermite mode.
	Sp [][][]float64

	// YTerm is the terminal raw state vector (length n_states), recorded
	// only in outputs-only mode so a consumer can resume simulation from
	// the final state without having tracked the full state history.
	YTerm []float64
}

// Assemble freezes recorder buffers into a SolutionData, applying the
// axis flip described above.
func Assemble(mode outputs.Mode, frozen recorder.Frozen, flag status.Flag, nStates int, yTerm []float64) *SolutionData {
	n := len(frozen.T)

	sd := &SolutionData{
		Flag:                 flag,
		NumberOfTimesteps:    n,
		LengthOfReturnVector: frozen.Width,
		LengthOfFinalSVSlice: nStates,
		SaveHermite:          frozen.Hermite,
		T:                    frozen.T,
		Y:                    frozen.Y,
	}

	if mode == outputs.OutputsOnly {
		sd.YTerm = append([]float64(nil), yTerm...)
	} else if frozen.Hermite {
		sd.Yp = frozen.Yp
	}

	if frozen.S == nil {
		return sd
	}

	switch mode {
	case outputs.FullState:
		sd.SensAxisTriple = AxisTriple{frozen.NParams, n, frozen.Width}
		sd.S = transposeToParamMajor(frozen.S, frozen.NParams, n, frozen.Width)
		if frozen.Hermite && frozen.Sp != nil {
			sd.Sp = transposeToParamMajor(frozen.Sp, frozen.NParams, n, frozen.Width)
		}
	case outputs.OutputsOnly:
		sd.SensAxisTriple = AxisTriple{n, frozen.Width, frozen.NParams}
		sd.S = frozen.S // already [i][p][l]; flip p and l below
		sd.S = transposeToTimeMajor(frozen.S, n, frozen.NParams, frozen.Width)
	}

	return sd
}

// transposeToParamMajor turns recorder-native [i][p][j] rows into the
// full-state axis order [p][i][j].
func transposeToParamMajor(rows [][][]float64, nParams, n, width int) [][][]float64 {
	out := make([][][]float64, nParams)
	for p := 0; p < nParams; p++ {
		out[p] = make([][]float64, n)
		for i := 0; i < n; i++ {
			out[p][i] = make([]float64, width)
			copy(out[p][i], rows[i][p])
		}
	}
	return out
}

// transposeToTimeMajor turns recorder-native [i][p][l] rows into the
// outputs-only axis order [i][l][p].
func transposeToTimeMajor(rows [][][]float64, n, nParams, width int) [][][]float64 {
	out := make([][][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([][]float64, width)
		for l := 0; l < width; l++ {
			out[i][l] = make([]float64, nParams)
			for p := 0; p < nParams; p++ {
				out[i][l][p] = rows[i][p][l]
			}
		}
	}
	return out
}
