// Package backend declares the opaque "nonlinear DAE integrator" trait
// the driver is built against: init, reinit, set_stop_time, calc_ic,
// step_one (IDA_ONE_STEP semantics), get_dky, and their sensitivity
// variants. Concrete back-ends (e.g. a native IDA/KLU binding) implement
// this interface; construction of a back-end — linear-solver selection,
// matrix structure, preconditioner setup — is deliberately kept out of
// this interface's scope.
package backend

import "github.com/dae-go/daesolve/internal/status"

// ICMode selects the consistent-initial-condition strategy the general
// DAE path delegates to the back-end.
type ICMode int

const (
	// FixDifferential holds the differential block fixed and solves for
	// the algebraic block and all of y'.
	FixDifferential ICMode = iota
	// SolveAllY solves for the entire y vector (and y').
	SolveAllY
)

// StepResult is what StepOne returns after advancing (or attempting to
// advance) the integration.
type StepResult struct {
	T      float64
	Y      []float64
	Yp     []float64
	S      [][]float64 // nParams x nStates, nil if sensitivities disabled
	Sp     [][]float64 // nParams x nStates, nil if sensitivities disabled
	Status status.Flag
	Err    error
}

// Backend is the set of primitives the StepDriver treats as a black box.
// All methods are synchronous; they may invoke user-supplied
// residual/jacobian/event callables and must not be called concurrently
// on the same instance.
type Backend interface {
	// Init (re)initialises the back-end session at t0 with the given
	// state and derivative. Called exactly once per driver lifetime,
	// from the INIT state.
	Init(t0 float64, y0, yp0 []float64) error

	// InitSensitivity seeds the sensitivity arrays S_i(t0) = dy/dp_i and
	// their derivatives. Called once, immediately after Init, only when
	// SensitivitiesEnabled reports true.
	InitSensitivity(yS0, ypS0 [][]float64) error

	// Reinit re-primes the back-end at t with the given (y, yp), without
	// discarding accumulated statistics. Used at STOP_DISCONT to recover
	// from the discontinuity a forced stop-time introduces.
	Reinit(t float64, y, yp []float64) error

	// SetStopTime instructs the back-end to halt exactly at t on the next
	// StepOne call (IDA_ONE_STEP + IDASetStopTime semantics).
	SetStopTime(t float64) error

	// CalcIC computes a pair (y, y') consistent with F=0 at the back-end's
	// current time, using the requested strategy. tNext must be strictly
	// greater than the current time; the back-end uses it only to orient
	// the search, it does not commit to stepping there.
	CalcIC(mode ICMode, tNext float64) error

	// StepOne advances by one internal step (IDA_ONE_STEP semantics),
	// never stepping past tStop.
	StepOne(tStop float64) StepResult

	// GetDky evaluates the k-th derivative of the interpolating
	// polynomial of the last completed step at t. k=0 returns y, k=1
	// returns y'. Valid only for t within [t_{step-1}, t_step] of the
	// current step.
	GetDky(t float64, k int) ([]float64, error)

	// GetDkySens is the sensitivity analogue of GetDky: it returns S(t)
	// (and, for k=1, Sp(t)), nParams x nStates, using the same dense
	// polynomial as GetDky. Returns (nil, nil) if sensitivities are
	// disabled.
	GetDkySens(t float64, k int) ([][]float64, error)

	// Residual evaluates F(t, y, yp) -> res. Exposed so ConsistentInit's
	// ODE shortcut can recover yp with a single residual call instead of
	// an implicit IC solve.
	Residual(t float64, y, yp []float64) []float64

	NumStates() int
	NumParams() int
	SensitivitiesEnabled() bool

	// DifferentialMask returns, per state index, a value > 0.999 for
	// differential variables and <= 0.999 for algebraic ones; the 0.999
	// tolerance is a deliberate, preserved imprecision, not a bug.
	DifferentialMask() []float64

	// Close releases the back-end context and everything it owns, in
	// reverse acquisition order: sensitivities, linear solver, matrix,
	// vectors, integrator memory, context.
	Close() error
}
