// Package options carries the plain tunables that flow through the
// driver and into back-end configuration calls.
package options

// LinearSolver enumerates the structural linear-solver choices fixed at
// driver construction.
type LinearSolver int

const (
	Dense LinearSolver = iota
	Banded
	SparseKLU
	MatrixFreeCG
	MatrixFreeGMRES
	MatrixFreeTFQMR
	MatrixFreeFGMRES
)

func (l LinearSolver) String() string {
	switch l {
	case Dense:
		return "dense"
	case Banded:
		return "banded"
	case SparseKLU:
		return "sparse-klu"
	case MatrixFreeCG:
		return "matrix-free-cg"
	case MatrixFreeGMRES:
		return "matrix-free-gmres"
	case MatrixFreeTFQMR:
		return "matrix-free-tfqmr"
	case MatrixFreeFGMRES:
		return "matrix-free-fgmres"
	default:
		return "unknown"
	}
}

// IsMatrixFree reports whether l is one of the Krylov matrix-free kinds.
func (l LinearSolver) IsMatrixFree() bool {
	switch l {
	case MatrixFreeCG, MatrixFreeGMRES, MatrixFreeTFQMR, MatrixFreeFGMRES:
		return true
	default:
		return false
	}
}

// JacobianMode enumerates how the Jacobian of the residual is supplied.
type JacobianMode int

const (
	JacobianSparse JacobianMode = iota
	JacobianBanded
	JacobianDense
	JacobianNone
	JacobianMatrixFree
)

// Preconditioner enumerates the supported preconditioning strategies for
// matrix-free linear solvers.
type Preconditioner int

const (
	PreconditionerNone Preconditioner = iota
	PreconditionerBBD
)

// SetupOptions fixes structural choices at driver construction. A change
// of SetupOptions requires a fresh driver.
type SetupOptions struct {
	LinearSolver     LinearSolver
	JacobianMode     JacobianMode
	Preconditioner   Preconditioner
	LowerHalfBandBBD int
	UpperHalfBandBBD int
	Workers          int // worker-thread count for vector ops, 0 = a single worker
}

// ICMode mirrors backend.ICMode without importing the backend package,
// keeping options a leaf dependency. The driver translates between the
// two.
type ICMode int

const (
	FixDifferential ICMode = iota
	SolveAllY
)

// SolverOptions carries integration tunables. Unlike SetupOptions, it may
// be re-applied to a live driver between solves.
type SolverOptions struct {
	MaxOrderBDF            int
	MinStepSize            float64
	MaxStepSize            float64
	InitStepSize           float64
	MaxErrTestFails        int
	MaxNonlinIters         int
	NonlinConvCoeff        float64
	SuppressAlgVarErrors   bool
	LineSearch             bool
	MaxICIters             int
	ScaleLinearSolution    bool
	PrintStats             bool
	CalcIC                 bool
	ICModeAtInit           ICMode
	PreferODEShortcut      bool
	Hermite                bool
	MaxNumSteps            int
	NoProgressWindow       int
	NoProgressThresholdSec float64
}

// DefaultSolverOptions returns reasonable defaults a caller can
// override selectively.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxOrderBDF:            5,
		MinStepSize:            1e-12,
		MaxStepSize:            0,
		InitStepSize:           0,
		MaxErrTestFails:        10,
		MaxNonlinIters:         4,
		NonlinConvCoeff:        0.33,
		SuppressAlgVarErrors:   true,
		LineSearch:             false,
		MaxICIters:             10,
		ScaleLinearSolution:    false,
		PrintStats:             false,
		CalcIC:                 true,
		MaxNumSteps:            500000,
		NoProgressWindow:       0,
		NoProgressThresholdSec: 0,
	}
}

// DefaultSetupOptions returns the library's default setup tunables.
func DefaultSetupOptions() SetupOptions {
	return SetupOptions{
		LinearSolver:   Dense,
		JacobianMode:   JacobianDense,
		Preconditioner: PreconditionerNone,
		Workers:        0,
	}
}
