package outputs_test

import (
	"math"
	"testing"

	"github.com/dae-go/daesolve/internal/expr"
	"github.com/dae-go/daesolve/internal/expr/poly"
	"github.com/dae-go/daesolve/internal/outputs"
)

func TestStageFullStateCopiesThrough(t *testing.T) {
	s := outputs.NewFullState(2, 1)
	if s.Width() != 2 {
		t.Fatalf("Width() = %d, want 2", s.Width())
	}
	y := []float64{3, 4}
	S := [][]float64{{5, 6}}
	yRow, sRows := s.Stage(0, y, S, nil)
	if yRow[0] != 3 || yRow[1] != 4 {
		t.Fatalf("yRow = %v, want [3 4]", yRow)
	}
	if len(sRows) != 1 || sRows[0][0] != 5 || sRows[0][1] != 6 {
		t.Fatalf("sRows = %v, want [[5 6]]", sRows)
	}
}

func TestStageFullStateNilSensitivities(t *testing.T) {
	s := outputs.NewFullState(2, 1)
	_, sRows := s.Stage(0, []float64{1, 2}, nil, nil)
	if sRows != nil {
		t.Fatalf("sRows = %v, want nil", sRows)
	}
}

// TestStageOutputsChainRule pins the chain-rule formula for a single
// square output f(y)=y[0]^2 with no sensitivities disabled: staged
// output value and d f/d p = 2*y0*S_p[0].
func TestStageOutputsChainRule(t *testing.T) {
	set := expr.Set{poly.NewSquare(0)}
	s := outputs.NewOutputsOnly(2, 2, set)
	if s.Width() != 1 {
		t.Fatalf("Width() = %d, want 1", s.Width())
	}

	y := []float64{3, 0}
	// S[p][j]: sensitivity of state j w.r.t. param p.
	S := [][]float64{
		{2, 0}, // dS/dp0
		{5, 0}, // dS/dp1
	}
	yRow, sRows := s.Stage(0, y, S, nil)

	wantY := 9.0 // 3^2
	if yRow[0] != wantY {
		t.Fatalf("yRow[0] = %v, want %v", yRow[0], wantY)
	}
	// df/dy0 = 2*y0 = 6.
	wantP0 := 6.0 * 2.0
	wantP1 := 6.0 * 5.0
	if sRows[0][0] != wantP0 {
		t.Fatalf("sRows[0][0] = %v, want %v", sRows[0][0], wantP0)
	}
	if sRows[1][0] != wantP1 {
		t.Fatalf("sRows[1][0] = %v, want %v", sRows[1][0], wantP1)
	}
}

// TestStageOutputsExplicitDp confirms an explicit ∂f/∂p contribution is
// added on top of the chain-rule term, not overwritten by it.
func TestStageOutputsExplicitDp(t *testing.T) {
	m := poly.NewLinear(0)
	m.ExplicitDp = map[int]float64{1: 7.0}
	set := expr.Set{m}
	s := outputs.NewOutputsOnly(1, 2, set)

	y := []float64{2}
	S := [][]float64{
		{0}, // dS/dp0 -> no explicit contribution for p0
		{3}, // dS/dp1
	}
	_, sRows := s.Stage(0, y, S, nil)

	// df/dy = 1 (linear), so chain term for p1 = 1*3 = 3; explicit adds 7.
	want0 := 0.0
	want1 := 3.0 + 7.0
	if sRows[0][0] != want0 {
		t.Fatalf("sRows[0][0] = %v, want %v", sRows[0][0], want0)
	}
	if sRows[1][0] != want1 {
		t.Fatalf("sRows[1][0] = %v, want %v", sRows[1][0], want1)
	}
}

// TestStageOutputsMultipleExpressionsConcatenateWidth checks Width() and
// row order across a two-expression set.
func TestStageOutputsMultipleExpressionsConcatenateWidth(t *testing.T) {
	set := expr.Set{poly.NewLinear(0), poly.NewSquare(1)}
	s := outputs.NewOutputsOnly(2, 1, set)
	if s.Width() != 2 {
		t.Fatalf("Width() = %d, want 2", s.Width())
	}
	y := []float64{4, 3}
	yRow, _ := s.Stage(0, y, nil, nil)
	if math.Abs(yRow[0]-4) > 1e-12 || math.Abs(yRow[1]-9) > 1e-12 {
		t.Fatalf("yRow = %v, want [4 9]", yRow)
	}
}
