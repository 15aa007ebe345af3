// Package bdf is the reference implementation of backend.Backend: a
// dense-Newton, order 1-2 backward-differentiation-formula integrator.
// It exists so the driver package is exercisable end-to-end without a
// native IDA/KLU binding, which is deliberately kept out of scope so
// back-end construction stays swappable.
//
// The BDF coefficient convention (a leading coefficient on y_n plus a
// constant "history" term folded from past accepted values) follows the
// divided-difference tables a toy-spice integrator builds for
// its Gear/BDF corrector; the step-doubling error control mirrors
// safety/minScale/maxScale ratio scaling used by adaptive Runge-Kutta
// steppers.
package bdf

import (
	"fmt"
	"math"

	"github.com/dae-go/daesolve/internal/backend"
	"github.com/dae-go/daesolve/internal/linalg"
)

// ResidualFunc evaluates F(t, y, yp; inputs) -> res, length len(y).
type ResidualFunc func(t float64, y, yp, inputs []float64) []float64

// EventFunc evaluates the root/event functions g(t, y) -> vals. A sign
// change in any component between two accepted steps is located by
// bisection against the Hermite dense output of that step.
type EventFunc func(t float64, y []float64) []float64

// Config parameterises one Backend instance. Building a Config from
// SetupOptions/SolverOptions is a wiring concern that belongs to the
// caller (see internal/registry), not to this package.
type Config struct {
	Residual         ResidualFunc
	NumStates        int
	DifferentialMask []float64 // len NumStates; see backend.Backend.DifferentialMask

	Inputs               []float64 // parameter vector S is taken with respect to
	SensitivitiesEnabled bool

	Event EventFunc

	RelTol  float64
	AbsTol  float64
	ParamEC float64 // finite-difference epsilon for Jy/Jyp/Fp columns

	MaxNewtonIters int
	NewtonTol      float64

	InitStep    float64
	MinStep     float64
	MaxStep     float64
	MaxNumSteps int

	Workers int
}

// DefaultConfig fills in the numeric tolerances and iteration caps a
// caller rarely wants to tune by hand.
func DefaultConfig() Config {
	return Config{
		RelTol:         1e-6,
		AbsTol:         1e-10,
		ParamEC:        1e-7,
		MaxNewtonIters: 12,
		NewtonTol:      1e-10,
		InitStep:       1e-4,
		MinStep:        1e-12,
		MaxStep:        0,
		MaxNumSteps:    500000,
		Workers:        1,
	}
}

type histPoint struct {
	t float64
	y []float64
}

// Backend is the concrete backend.Backend built from Config.
type Backend struct {
	cfg Config

	t      float64
	y, yp  []float64
	hist   []histPoint
	dt     float64
	order  int
	step   int
	tStop  float64
	closed bool

	// last completed internal step's endpoints, for dense output.
	tPrev, tCur   float64
	yPrev, yCur   []float64
	ypPrev, ypCur []float64

	sens          bool
	nParams       int
	S, Sp         [][]float64
	SPrev, SpPrev [][]float64
	SCur, SpCur   [][]float64
	sHist         [][][]float64 // per accepted step, nParams x nStates, aligned with hist
}

// New validates cfg and returns a fresh, uninitialised Backend. Call
// Init before StepOne.
func New(cfg Config) (*Backend, error) {
	if cfg.Residual == nil {
		return nil, fmt.Errorf("bdf: Residual must not be nil")
	}
	if cfg.NumStates <= 0 {
		return nil, fmt.Errorf("bdf: NumStates must be positive")
	}
	if len(cfg.DifferentialMask) != cfg.NumStates {
		return nil, fmt.Errorf("bdf: DifferentialMask length must equal NumStates")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	nParams := 0
	if cfg.SensitivitiesEnabled {
		nParams = len(cfg.Inputs)
	}
	return &Backend{cfg: cfg, nParams: nParams, sens: cfg.SensitivitiesEnabled}, nil
}

func (b *Backend) NumStates() int             { return b.cfg.NumStates }
func (b *Backend) NumParams() int             { return b.nParams }
func (b *Backend) SensitivitiesEnabled() bool { return b.sens }
func (b *Backend) DifferentialMask() []float64 {
	return append([]float64(nil), b.cfg.DifferentialMask...)
}

func (b *Backend) Residual(t float64, y, yp []float64) []float64 {
	return b.cfg.Residual(t, y, yp, b.cfg.Inputs)
}

// Init (re)starts the integration at t0 with the bootstrap BDF1 order
// and no accumulated history — called exactly once per driver
// lifetime.
func (b *Backend) Init(t0 float64, y0, yp0 []float64) error {
	b.t = t0
	b.y = append([]float64(nil), y0...)
	b.yp = append([]float64(nil), yp0...)
	b.hist = []histPoint{{t: t0, y: append([]float64(nil), y0...)}}
	b.order = 1
	b.step = 0
	b.dt = b.cfg.InitStep
	if b.dt <= 0 {
		b.dt = 1e-4
	}
	b.tPrev, b.tCur = t0, t0
	b.yPrev, b.yCur = b.y, b.y
	b.ypPrev, b.ypCur = b.yp, b.yp
	b.closed = false
	return nil
}

func (b *Backend) InitSensitivity(yS0, ypS0 [][]float64) error {
	if !b.sens {
		return nil
	}
	b.S = copyMat(yS0)
	b.Sp = copyMat(ypS0)
	b.SPrev, b.SCur = b.S, b.S
	b.SpPrev, b.SpCur = b.Sp, b.Sp
	b.sHist = [][][]float64{copyMat(b.S)}
	return nil
}

// Reinit re-primes the integrator at a discontinuity: history is
// discarded (order bootstraps back to 1) but sensitivities carry
// through unchanged, since a forced stop-time is not a fresh trajectory.
func (b *Backend) Reinit(t float64, y, yp []float64) error {
	b.t = t
	b.y = append([]float64(nil), y...)
	b.yp = append([]float64(nil), yp...)
	b.hist = []histPoint{{t: t, y: append([]float64(nil), y...)}}
	b.order = 1
	b.tPrev, b.tCur = t, t
	b.yPrev, b.yCur = b.y, b.y
	b.ypPrev, b.ypCur = b.yp, b.yp
	if b.sens {
		b.SPrev, b.SCur = b.S, b.S
		b.SpPrev, b.SpCur = b.Sp, b.Sp
		b.sHist = [][][]float64{copyMat(b.S)}
	}
	return nil
}

func (b *Backend) SetStopTime(t float64) error {
	if t <= b.t {
		return fmt.Errorf("bdf: stop time %g must be strictly greater than current time %g", t, b.t)
	}
	b.tStop = t
	return nil
}

// CalcIC implements a deliberately narrowed consistent-IC solve: in
// FixDifferential mode y is held fixed and Newton solves F(t,y,yp)=0
// for yp alone; in SolveAllY mode yp is held fixed and Newton solves
// for y alone. Splitting the differential/algebraic blocks of y the
// way IDA_YA_YDP_INIT does is out of scope for this reference back-end.
func (b *Backend) CalcIC(mode backend.ICMode, tNext float64) error {
	if tNext <= b.t {
		return fmt.Errorf("bdf: calc_ic tNext %g must exceed current time %g", tNext, b.t)
	}
	n := b.cfg.NumStates

	switch mode {
	case backend.FixDifferential:
		ypGuess := append([]float64(nil), b.yp...)
		solved, err := b.newtonSolve(func(u []float64) []float64 {
			return b.cfg.Residual(b.t, b.y, u, b.cfg.Inputs)
		}, ypGuess, n)
		if err != nil {
			return fmt.Errorf("bdf: calc_ic (fix differential) failed to converge: %w", err)
		}
		b.yp = solved
	case backend.SolveAllY:
		yGuess := append([]float64(nil), b.y...)
		solved, err := b.newtonSolve(func(u []float64) []float64 {
			return b.cfg.Residual(b.t, u, b.yp, b.cfg.Inputs)
		}, yGuess, n)
		if err != nil {
			return fmt.Errorf("bdf: calc_ic (solve all y) failed to converge: %w", err)
		}
		b.y = solved
	default:
		return fmt.Errorf("bdf: unknown ic mode %v", mode)
	}

	b.tPrev, b.tCur = b.t, b.t
	b.yPrev, b.yCur = b.y, b.y
	b.ypPrev, b.ypCur = b.yp, b.yp
	return nil
}

// newtonSolve finds u such that f(u) == 0, starting from guess, via
// dense Newton iteration with a centered-difference Jacobian.
func (b *Backend) newtonSolve(f func([]float64) []float64, guess []float64, n int) ([]float64, error) {
	u := append([]float64(nil), guess...)
	for iter := 0; iter < b.cfg.MaxNewtonIters; iter++ {
		res := f(u)
		if normInf(res) < b.cfg.NewtonTol {
			return u, nil
		}
		jac := jacobianOf(f, u, n, b.cfg.ParamEC)
		delta, err := linalg.Solve(jac, negate(res))
		if err != nil {
			return nil, err
		}
		for i := range u {
			u[i] += delta[i]
		}
	}
	return nil, fmt.Errorf("newton iteration did not converge in %d steps", b.cfg.MaxNewtonIters)
}

func jacobianOf(f func([]float64) []float64, u []float64, n int, eps float64) [][]float64 {
	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, n)
	}
	pert := append([]float64(nil), u...)
	for j := 0; j < n; j++ {
		h := eps * (1 + math.Abs(u[j]))
		orig := pert[j]

		pert[j] = orig + h
		fPlus := f(pert)
		pert[j] = orig - h
		fMinus := f(pert)
		pert[j] = orig

		for i := 0; i < n; i++ {
			jac[i][j] = (fPlus[i] - fMinus[i]) / (2 * h)
		}
	}
	return jac
}

func normInf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func copyMat(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

func (b *Backend) Close() error {
	b.closed = true
	return nil
}
