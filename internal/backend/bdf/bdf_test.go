package bdf_test

import (
	"math"
	"testing"

	"github.com/dae-go/daesolve/internal/backend"
	"github.com/dae-go/daesolve/internal/backend/bdf"
	"github.com/dae-go/daesolve/internal/status"
)

// decayResidual encodes F(t,y,y') = f(t,y) - y' = -k*y - y' for a scalar
// exponential decay dy/dt = -k*y, with k carried as inputs[0]. The
// f(t,y) - y' convention (rather than y' - f(t,y)) is what lets
// Residual(t,y,0) recover yp directly for ConsistentInit's ODE
// shortcut.
func decayResidual(t float64, y, yp, inputs []float64) []float64 {
	return []float64{-inputs[0]*y[0] - yp[0]}
}

func newDecayBackend(t *testing.T, sens bool) *bdf.Backend {
	t.Helper()
	cfg := bdf.DefaultConfig()
	cfg.Residual = decayResidual
	cfg.NumStates = 1
	cfg.DifferentialMask = []float64{1}
	cfg.Inputs = []float64{2.0}
	cfg.SensitivitiesEnabled = sens
	be, err := bdf.New(cfg)
	if err != nil {
		t.Fatalf("bdf.New: %v", err)
	}
	return be
}

func TestStepOneReachesStopTime(t *testing.T) {
	be := newDecayBackend(t, false)
	if err := be.Init(0, []float64{1}, []float64{-2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := be.SetStopTime(1.0); err != nil {
		t.Fatalf("SetStopTime: %v", err)
	}

	var last backend.StepResult
	for i := 0; i < 100000; i++ {
		res := be.StepOne(1.0)
		if res.Err != nil {
			t.Fatalf("step_one failed: %v", res.Err)
		}
		last = res
		if res.Status.IsFailure() {
			t.Fatalf("unexpected failure status: %v", res.Status)
		}
		if res.Status == status.StopReturn {
			break
		}
	}
	if last.T != 1.0 {
		t.Fatalf("expected stop exactly at t=1, got %g", last.T)
	}
	want := math.Exp(-2.0)
	if math.Abs(last.Y[0]-want) > 1e-4 {
		t.Fatalf("y(1) = %g, want approx %g", last.Y[0], want)
	}
}

func TestGetDkyInterpolatesWithinLastStep(t *testing.T) {
	be := newDecayBackend(t, false)
	if err := be.Init(0, []float64{1}, []float64{-2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := be.SetStopTime(0.5); err != nil {
		t.Fatalf("SetStopTime: %v", err)
	}
	res := be.StepOne(0.5)
	if res.Err != nil {
		t.Fatalf("step_one: %v", res.Err)
	}
	mid := res.T / 2
	y, err := be.GetDky(mid, 0)
	if err != nil {
		t.Fatalf("get_dky: %v", err)
	}
	if y[0] <= res.Y[0] || y[0] >= 1.0 {
		t.Fatalf("interpolated y(%g)=%g not between endpoints", mid, y[0])
	}
}

func TestConsistentInitODEShortcut(t *testing.T) {
	be := newDecayBackend(t, false)
	yp := be.Residual(0, []float64{1}, []float64{0})
	if math.Abs(yp[0]-(-2)) > 1e-12 {
		t.Fatalf("residual-based yp shortcut = %g, want -2", yp[0])
	}
}

func TestSensitivityPropagationIsFiniteAndNonzero(t *testing.T) {
	be := newDecayBackend(t, true)
	if err := be.Init(0, []float64{1}, []float64{-2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := be.InitSensitivity([][]float64{{0}}, [][]float64{{0}}); err != nil {
		t.Fatalf("InitSensitivity: %v", err)
	}
	if err := be.SetStopTime(0.5); err != nil {
		t.Fatalf("SetStopTime: %v", err)
	}
	var last backend.StepResult
	for i := 0; i < 100000; i++ {
		res := be.StepOne(0.5)
		if res.Err != nil {
			t.Fatalf("step_one: %v", res.Err)
		}
		last = res
		if res.Status == status.StopReturn {
			break
		}
	}
	if last.S == nil || len(last.S) != 1 {
		t.Fatalf("expected one sensitivity row, got %v", last.S)
	}
	s := last.S[0][0]
	if math.IsNaN(s) || math.IsInf(s, 0) {
		t.Fatalf("sensitivity blew up: %g", s)
	}
	// dy/dk analytically is -t*y(t) at k=2, t=0.5.
	want := -0.5 * math.Exp(-1.0)
	if math.Abs(s-want) > 5e-2 {
		t.Fatalf("dS/dk = %g, want approx %g", s, want)
	}
}
