package analysis

import "math"

// LyapunovExponent estimates the largest Lyapunov exponent from two
// trajectories of the same system sampled at the same evaluation times:
// a base run and a run started from a nearby, perturbed initial
// condition. A positive value indicates chaos.
//
// This is the single-pair, non-renormalised estimate
// lambda ~= (1/T) * ln(|delta x(T)/delta x(0)|): since both trajectories
// have already been fully solved rather than stepped in a shared live
// loop, there is no point at which to renormalise the perturbed
// trajectory back toward the base one mid-run. It is therefore only
// reliable while the separation stays in the linear regime over
// [t0, T]; a caller chasing a longer horizon should chain several
// shorter LyapunovExponent estimates instead of one long one.
//
// t, yBase and yPerturbed must come from driver.Driver.Solve calls that
// share the same t_eval grid, so samples at matching indices are
// directly comparable.
func LyapunovExponent(t []float64, yBase, yPerturbed [][]float64, d0 float64) float64 {
	if len(t) < 2 || len(yBase) != len(t) || len(yPerturbed) != len(t) || d0 <= 0 {
		return 0
	}

	duration := t[len(t)-1] - t[0]
	if duration == 0 {
		return 0
	}

	sepFinal := separation(yBase[len(yBase)-1], yPerturbed[len(yPerturbed)-1])
	if sepFinal <= 0 {
		return 0
	}
	return math.Log(sepFinal/d0) / duration
}

// LyapunovSpectrum computes one exponent per state dimension, given one
// base trajectory plus one perturbed trajectory per dimension (each
// solved with y0 offset by d0 along that dimension only, on the same
// t_eval grid as base).
func LyapunovSpectrum(t []float64, yBase [][]float64, yPerturbedPerDim [][][]float64, d0 float64) []float64 {
	spectrum := make([]float64, len(yPerturbedPerDim))
	for i, yp := range yPerturbedPerDim {
		spectrum[i] = LyapunovExponent(t, yBase, yp, d0)
	}
	return spectrum
}

func separation(a, b []float64) float64 {
	sep := 0.0
	for i := range a {
		diff := b[i] - a[i]
		sep += diff * diff
	}
	return math.Sqrt(sep)
}
