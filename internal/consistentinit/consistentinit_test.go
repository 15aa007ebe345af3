package consistentinit_test

import (
	"math"
	"testing"

	"github.com/dae-go/daesolve/internal/backend"
	"github.com/dae-go/daesolve/internal/consistentinit"
)

// fakeBackend is a two-state stand-in exercising ConsistentInit without
// pulling in a real BDF integration. State 0 is differential (y0'=-y0),
// state 1 is algebraic (y1-y0=0). CalcIC solves the algebraic row by
// simple fixed-point correction, not full Newton, since ConsistentInit
// only needs CalcIC to converge and hand back a consistent (y, y').
type fakeBackend struct {
	mask   []float64
	y, yp  []float64
	calcIC func(mode backend.ICMode, tNext float64) error
}

func (b *fakeBackend) Init(t0 float64, y0, yp0 []float64) error    { return nil }
func (b *fakeBackend) InitSensitivity(yS0, ypS0 [][]float64) error { return nil }
func (b *fakeBackend) Reinit(t float64, y, yp []float64) error     { return nil }
func (b *fakeBackend) SetStopTime(t float64) error                 { return nil }

func (b *fakeBackend) CalcIC(mode backend.ICMode, tNext float64) error {
	return b.calcIC(mode, tNext)
}

func (b *fakeBackend) StepOne(tStop float64) backend.StepResult { return backend.StepResult{} }

func (b *fakeBackend) GetDky(t float64, k int) ([]float64, error) {
	if k == 0 {
		return append([]float64(nil), b.y...), nil
	}
	return append([]float64(nil), b.yp...), nil
}

func (b *fakeBackend) GetDkySens(t float64, k int) ([][]float64, error) { return nil, nil }

func (b *fakeBackend) Residual(t float64, y, yp []float64) []float64 {
	return []float64{yp[0] + y[0], y[1] - y[0]}
}

func (b *fakeBackend) NumStates() int              { return 2 }
func (b *fakeBackend) NumParams() int              { return 0 }
func (b *fakeBackend) SensitivitiesEnabled() bool  { return false }
func (b *fakeBackend) DifferentialMask() []float64 { return b.mask }
func (b *fakeBackend) Close() error                { return nil }

var _ backend.Backend = (*fakeBackend)(nil)

func TestNewIsODETrueWhenAllDifferential(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 1}}
	s := consistentinit.New(be)
	if !s.IsODE() {
		t.Fatalf("IsODE() = false, want true")
	}
}

func TestNewIsODEFalseWithAlgebraicRow(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 0}}
	s := consistentinit.New(be)
	if s.IsODE() {
		t.Fatalf("IsODE() = true, want false")
	}
}

// TestNewIsODEHonorsToleranceNotExactEquality checks the 0.999 threshold
// is a "greater than," not "equal to," comparison as documented.
func TestNewIsODEHonorsToleranceNotExactEquality(t *testing.T) {
	be := &fakeBackend{mask: []float64{0.9995, 1}}
	s := consistentinit.New(be)
	if !s.IsODE() {
		t.Fatalf("IsODE() = false, want true for mask value just above 0.999")
	}
}

func TestODEShortcutRecoversYpFromResidual(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 1}}
	s := consistentinit.New(be)
	yp := s.ODEShortcut(0, []float64{3, 5})
	// Residual(t, y, 0) = [0+3, 5-3] = [3, 2]; shortcut returns that
	// directly since it is F(t,y,0), matching a pure-ODE residual.
	if yp[0] != 3 || yp[1] != 2 {
		t.Fatalf("ODEShortcut = %v, want [3 2]", yp)
	}
}

// TestGeneralIteratesToConsistency exercises General's non-ODE-shortcut
// path with an algebraic row that starts inconsistent (y1 != y0) and
// requires CalcIC to actually correct it, not just early-exit.
func TestGeneralIteratesToConsistency(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 0}, y: []float64{2, 9}, yp: []float64{-2, 0}}
	be.calcIC = func(mode backend.ICMode, tNext float64) error {
		if mode != backend.FixDifferential {
			t.Fatalf("mode = %v, want FixDifferential", mode)
		}
		if tNext <= 0 {
			t.Fatalf("tNext = %v, want > 0", tNext)
		}
		// Simulate the back-end's Newton correction: hold y[0] fixed,
		// solve the algebraic row for y[1], then recompute yp[0] from
		// the differential row.
		res := be.Residual(0, be.y, be.yp)
		for i := 0; i < 20 && math.Abs(res[1]) > 1e-12; i++ {
			be.y[1] -= res[1]
			res = be.Residual(0, be.y, be.yp)
		}
		be.yp[0] = -be.y[0]
		return nil
	}

	s := consistentinit.New(be)
	y, yp, err := s.General(0, backend.FixDifferential, 1)
	if err != nil {
		t.Fatalf("General returned error: %v", err)
	}
	if math.Abs(y[1]-y[0]) > 1e-9 {
		t.Fatalf("algebraic row not satisfied: y = %v", y)
	}
	if math.Abs(yp[0]+y[0]) > 1e-9 {
		t.Fatalf("differential row not satisfied: y=%v yp=%v", y, yp)
	}
}

func TestGeneralPropagatesCalcICError(t *testing.T) {
	wantErr := &fakeErr{"newton failed"}
	be := &fakeBackend{mask: []float64{1, 0}}
	be.calcIC = func(backend.ICMode, float64) error { return wantErr }
	s := consistentinit.New(be)
	_, _, err := s.General(0, backend.FixDifferential, 1)
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestRunDispatchesToShortcutOnlyWhenBothConditionsHold(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 1}}
	calledGeneral := false
	be.calcIC = func(backend.ICMode, float64) error { calledGeneral = true; return nil }
	be.y = []float64{1, 1}
	be.yp = []float64{-1, -1}
	s := consistentinit.New(be)

	y, yp, err := s.Run(0, []float64{4, 6}, backend.FixDifferential, 1, true)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if calledGeneral {
		t.Fatalf("Run called CalcIC despite preferShortcut and IsODE both true")
	}
	if y[0] != 4 || y[1] != 6 {
		t.Fatalf("y = %v, want the input y echoed back", y)
	}
	if yp[0] != 4 || yp[1] != 2 {
		t.Fatalf("yp = %v, want Residual(t,y,0)", yp)
	}
}

func TestRunFallsBackToGeneralWhenNotODE(t *testing.T) {
	be := &fakeBackend{mask: []float64{1, 0}, y: []float64{1, 1}, yp: []float64{-1, 0}}
	called := false
	be.calcIC = func(backend.ICMode, float64) error { called = true; return nil }
	s := consistentinit.New(be)

	_, _, err := s.Run(0, []float64{1, 1}, backend.FixDifferential, 1, true)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !called {
		t.Fatalf("Run did not delegate to General despite IsODE()==false")
	}
}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }
