package analysis_test

import (
	"math"
	"testing"

	"github.com/dae-go/daesolve/internal/analysis"
)

func TestLyapunovExponentPositiveForDiverging(t *testing.T) {
	d0 := 1e-6
	tv := []float64{0, 1, 2}
	base := [][]float64{{0}, {0}, {0}}
	perturbed := [][]float64{{d0}, {d0 * 10}, {d0 * 1000}}

	exp := analysis.LyapunovExponent(tv, base, perturbed, d0)
	if exp <= 0 {
		t.Fatalf("exponent = %g, want > 0 for a growing separation", exp)
	}
}

func TestLyapunovExponentNonPositiveForContracting(t *testing.T) {
	d0 := 1.0
	tv := []float64{0, 1, 2}
	base := [][]float64{{0}, {0}, {0}}
	perturbed := [][]float64{{1}, {0.1}, {0.01}}

	exp := analysis.LyapunovExponent(tv, base, perturbed, d0)
	if exp >= 0 {
		t.Fatalf("exponent = %g, want < 0 for a shrinking separation", exp)
	}
}

func TestLyapunovExponentDegenerateInputs(t *testing.T) {
	cases := []struct {
		name       string
		t          []float64
		base, pert [][]float64
		d0         float64
	}{
		{"too few times", []float64{0}, [][]float64{{0}}, [][]float64{{1}}, 1},
		{"mismatched lengths", []float64{0, 1}, [][]float64{{0}}, [][]float64{{1}, {1}}, 1},
		{"non-positive d0", []float64{0, 1}, [][]float64{{0}, {0}}, [][]float64{{1}, {2}}, 0},
		{"zero duration", []float64{1, 1}, [][]float64{{0}, {0}}, [][]float64{{1}, {2}}, 1},
		{"zero final separation", []float64{0, 1}, [][]float64{{0}, {0}}, [][]float64{{1}, {0}}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := analysis.LyapunovExponent(c.t, c.base, c.pert, c.d0); got != 0 {
				t.Fatalf("exponent = %g, want 0", got)
			}
		})
	}
}

func TestLyapunovSpectrumOneExponentPerDimension(t *testing.T) {
	tv := []float64{0, 1}
	base := [][]float64{{0, 0}, {0, 0}}
	perturbedPerDim := [][][]float64{
		{{1, 0}, {2, 0}},
		{{0, 1}, {0, 0.5}},
	}
	spectrum := analysis.LyapunovSpectrum(tv, base, perturbedPerDim, 1)
	if len(spectrum) != 2 {
		t.Fatalf("spectrum length = %d, want 2", len(spectrum))
	}
	if spectrum[0] <= 0 {
		t.Fatalf("dim0 exponent = %g, want > 0", spectrum[0])
	}
	if spectrum[1] >= 0 {
		t.Fatalf("dim1 exponent = %g, want < 0", spectrum[1])
	}
	if math.IsNaN(spectrum[0]) || math.IsNaN(spectrum[1]) {
		t.Fatalf("spectrum contains NaN: %v", spectrum)
	}
}
