// Package outputs implements the OutputStager component: it transforms
// a raw state snapshot (y, S) into either the full state or a vector of
// user-defined outputs plus their parametric sensitivities.
package outputs

import "github.com/dae-go/daesolve/internal/expr"

// Mode selects which of the two OutputStager layouts is active.
type Mode int

const (
	FullState Mode = iota
	OutputsOnly
)

// Stager stages one snapshot's worth of (y, S) into a recorder row.
type Stager struct {
	mode    Mode
	nStates int
	nParams int
	set     expr.Set
}

// NewFullState builds a Stager that simply copies the raw state and
// sensitivity vectors through, unmodified.
func NewFullState(nStates, nParams int) *Stager {
	return &Stager{mode: FullState, nStates: nStates, nParams: nParams}
}

// NewOutputsOnly builds a Stager that evaluates set against every
// snapshot instead of returning the raw state.
func NewOutputsOnly(nStates, nParams int, set expr.Set) *Stager {
	return &Stager{mode: OutputsOnly, nStates: nStates, nParams: nParams, set: set}
}

func (s *Stager) Mode() Mode { return s.mode }

// Width is the length of a staged y-row: n_states in full-state mode,
// Σ nnz(var_i) in outputs-only mode.
func (s *Stager) Width() int {
	if s.mode == FullState {
		return s.nStates
	}
	return s.set.TotalNNZ()
}

// Stage transforms one raw snapshot. S may be nil if sensitivities are
// disabled; the returned sRows is then nil too.
func (s *Stager) Stage(t float64, y []float64, S [][]float64, inputs []float64) (yRow []float64, sRows [][]float64) {
	if s.mode == FullState {
		return s.stageFull(y, S)
	}
	return s.stageOutputs(t, y, S, inputs)
}

func (s *Stager) stageFull(y []float64, S [][]float64) ([]float64, [][]float64) {
	yRow := make([]float64, len(y))
	copy(yRow, y)

	if S == nil {
		return yRow, nil
	}
	sRows := make([][]float64, s.nParams)
	for p := 0; p < s.nParams; p++ {
		sRows[p] = make([]float64, s.nStates)
		copy(sRows[p], S[p])
	}
	return yRow, sRows
}

func (s *Stager) stageOutputs(t float64, y []float64, S [][]float64, inputs []float64) ([]float64, [][]float64) {
	width := s.Width()
	yRow := make([]float64, 0, width)

	var sRows [][]float64
	if S != nil {
		sRows = make([][]float64, s.nParams)
		for p := range sRows {
			sRows[p] = make([]float64, 0, width)
		}
	}

	for _, e := range s.set {
		out := e.Call(t, y, inputs)
		yRow = append(yRow, out...)

		if S == nil {
			continue
		}

		// (∂f_k/∂p)[p] = (∂f_k/∂p)_explicit[p] + Σ_j (∂f_k/∂y)[j] · S_p[j]
		// Tie-break for overlapping sparsity: explicit value initialised
		// first, then the chain-rule sum added on top.
		cols := e.GetCol()
		dfdy := e.DfDy(t, y, inputs)
		rows := e.GetRow()
		dfdpExplicit := e.DfDpExplicit(t, y, inputs)

		for k := 0; k < e.NNZOut(); k++ {
			explicit := make([]float64, s.nParams)
			for i, r := range rows {
				if r >= 0 && r < s.nParams {
					explicit[r] = dfdpExplicit[i]
				}
			}
			for p := 0; p < s.nParams; p++ {
				chain := 0.0
				for i, j := range cols {
					if j < 0 || j >= len(S[p]) {
						continue
					}
					chain += dfdy[i] * S[p][j]
				}
				sRows[p] = append(sRows[p], explicit[p]+chain)
			}
		}
	}

	return yRow, sRows
}
