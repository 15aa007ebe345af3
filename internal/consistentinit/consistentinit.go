// Package consistentinit implements ConsistentInit: it computes a pair
// (y, y') mutually consistent with F=0 at a given t, choosing between
// an analytic ODE shortcut and the back-end's implicit IC solve.
package consistentinit

import (
	"math"

	"github.com/dae-go/daesolve/internal/backend"
)

// sqrtEps is sqrt of the float64 machine epsilon, used for the
// scalar perturbation at stop-times.
var sqrtEps = math.Sqrt(2.220446049250313e-16)

// PerturbedNext returns a strictly-future time to hand the back-end when
// it requires one for an IC solve even though the driver has not yet
// committed to stepping that far. forward selects the sign convention
// for forward vs backward integration.
func PerturbedNext(t float64, forward bool) float64 {
	if forward {
		return (1+sqrtEps)*t + sqrtEps
	}
	return (1-sqrtEps)*t - sqrtEps
}

// Solver computes consistent initial conditions against a back-end.
type Solver struct {
	be    backend.Backend
	isODE bool
}

// New computes is_ODE once: the conjunction over all state indices of
// differential_mask[i] > 0.999. The 0.999 tolerance is deliberate — do
// not tighten it to == 1.0.
func New(be backend.Backend) *Solver {
	mask := be.DifferentialMask()
	isODE := true
	for _, m := range mask {
		if !(m > 0.999) {
			isODE = false
			break
		}
	}
	return &Solver{be: be, isODE: isODE}
}

// IsODE reports whether every state variable is differential.
func (s *Solver) IsODE() bool { return s.isODE }

// ODEShortcut evaluates F(t, y, 0) -> yp directly, bypassing the
// implicit IC solve. Valid only when IsODE() holds: for a pure-ODE
// residual of the form f(t,y) - I*y', setting y'=0 recovers
// yp = f(t,y) in one residual call.
func (s *Solver) ODEShortcut(t float64, y []float64) []float64 {
	zero := make([]float64, len(y))
	return s.be.Residual(t, y, zero)
}

// General delegates to the back-end's implicit consistent-IC solver and
// reads the resulting (y, y') back via dense output at t.
func (s *Solver) General(t float64, mode backend.ICMode, tNext float64) (y, yp []float64, err error) {
	if err := s.be.CalcIC(mode, tNext); err != nil {
		return nil, nil, err
	}
	y, err = s.be.GetDky(t, 0)
	if err != nil {
		return nil, nil, err
	}
	yp, err = s.be.GetDky(t, 1)
	if err != nil {
		return nil, nil, err
	}
	return y, yp, nil
}

// Run picks the ODE shortcut when the system is a pure ODE and the
// caller requests it (preferShortcut), otherwise delegates to General.
func (s *Solver) Run(t float64, y []float64, mode backend.ICMode, tNext float64, preferShortcut bool) (newY, newYp []float64, err error) {
	if s.isODE && preferShortcut {
		return y, s.ODEShortcut(t, y), nil
	}
	return s.General(t, mode, tNext)
}
