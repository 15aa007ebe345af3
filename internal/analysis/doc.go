// Package analysis provides post-hoc characterisation of solved
// trajectories: phase portraits, Poincare sections, spectral content,
// Lyapunov exponent estimates and bifurcation diagrams.
//
// Every function here operates on an already-produced
// resultassembler.SolutionData (or a Runner that produces one per
// parameter value), never on a live integration loop: this package has
// no dependency on driver.Driver or backend.Backend, only on the
// trajectory shapes those packages produce.
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda := analysis.LyapunovExponent(t, yBase, yPerturbed, d0)
//	if lambda > 0 {
//	    // trajectories are diverging exponentially
//	}
package analysis
