// Package driver implements StepDriver: the state machine that advances
// the solution, interleaves the eval/interp/adaptive snapshot
// schedules, and handles stop-times, root events, stalls and failures.
// It is the core of this repository: a run loop generalised to an
// index-1 DAE with forced stop-times and dense output.
package driver

import (
	"fmt"

	"github.com/dae-go/daesolve/internal/backend"
	"github.com/dae-go/daesolve/internal/consistentinit"
	"github.com/dae-go/daesolve/internal/noprogress"
	"github.com/dae-go/daesolve/internal/options"
	"github.com/dae-go/daesolve/internal/outputs"
	"github.com/dae-go/daesolve/internal/recorder"
	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/status"
)

type state int

const (
	stInit state = iota
	stStepping
	stStopDiscont
	stDone
	stFail
)

// Driver is the StepDriver state machine. It exclusively owns the
// integrator handle for the lifetime of one trajectory; the caller must
// not use be concurrently with the Driver.
type Driver struct {
	be     backend.Backend
	setup  options.SetupOptions
	solver options.SolverOptions
	stager *outputs.Stager
	ci     *consistentinit.Solver

	nStates int
	nParams int
	sens    bool

	lastErr error
}

// New constructs a driver bound to be, per stager's output layout.
// Configuration errors (unsupported jacobian mode, unset linear solver,
// missing expression callables) belong to back-end construction and are
// therefore raised by whatever built be, not by New — back-end
// construction is deliberately kept out of the driver's own scope.
func New(be backend.Backend, setup options.SetupOptions, solver options.SolverOptions, stager *outputs.Stager) (*Driver, error) {
	if be == nil {
		return nil, fmt.Errorf("driver: backend must not be nil")
	}
	if stager == nil {
		return nil, fmt.Errorf("driver: stager must not be nil")
	}
	return &Driver{
		be:      be,
		setup:   setup,
		solver:  solver,
		stager:  stager,
		nStates: be.NumStates(),
		nParams: be.NumParams(),
		sens:    be.SensitivitiesEnabled(),
		ci:      consistentinit.New(be),
	}, nil
}

func (d *Driver) icMode() backend.ICMode {
	if d.solver.ICModeAtInit == options.SolveAllY {
		return backend.SolveAllY
	}
	return backend.FixDifferential
}

// Solve runs one trajectory to completion or failure and returns the
// assembled SolutionData.
func (d *Driver) Solve(tEval, tInterp []float64, y0, yp0, inputs []float64, saveAdaptive, saveInterp bool) (*resultassembler.SolutionData, error) {
	if err := validateSchedule(tEval, tInterp, y0, yp0, d.nStates, d.nParams); err != nil {
		return nil, err
	}

	baseY0, sBlocksY0 := splitVector(y0, d.nStates, d.nParams)
	baseYp0, sBlocksYp0 := splitVector(yp0, d.nStates, d.nParams)

	if err := d.be.Init(tEval[0], baseY0, baseYp0); err != nil {
		return nil, fmt.Errorf("driver: back-end init failed: %w", err)
	}
	if d.sens {
		if err := d.be.InitSensitivity(sBlocksY0, sBlocksYp0); err != nil {
			return nil, fmt.Errorf("driver: back-end sensitivity init failed: %w", err)
		}
	}

	rec := recorder.New(d.stager.Width(), d.nParams, d.sens, d.solver.Hermite)
	rec.Reserve(len(tEval) + len(tInterp))
	guard := noprogress.New(d.solver.NoProgressWindow, d.solver.NoProgressThresholdSec)

	curT := tEval[0]
	curY := append([]float64(nil), baseY0...)
	curYp := append([]float64(nil), baseYp0...)
	curS := sBlocksY0
	curSp := sBlocksYp0
	lastRawY := append([]float64(nil), curY...)

	flag := status.Success
	var lastErr error

	// INIT
	if d.solver.CalcIC {
		tNext := consistentinit.PerturbedNext(curT, true)
		newY, newYp, err := d.ci.Run(curT, curY, d.icMode(), tNext, d.solver.PreferODEShortcut)
		if err != nil {
			// Consistent-IC failure at t0 is a category-2 integration
			// error: the loop exits with an empty recorder and the
			// failing flag, never a synchronous Go error.
			return resultassembler.Assemble(d.stager.Mode(), rec.Freeze(), status.ErrFail, d.nStates, lastRawY), nil
		}
		curY, curYp = newY, newYp
	}

	if err := d.be.SetStopTime(tEval[1]); err != nil {
		return nil, fmt.Errorf("driver: set_stop_time failed: %w", err)
	}

	yRow, sRows := d.stager.Stage(curT, curY, curS, inputs)
	var ypRow []float64
	var spRows [][]float64
	if d.solver.Hermite {
		ypRow = curYp
		if d.sens && d.stager.Mode() == outputs.FullState {
			spRows = curSp
		}
	}
	rec.Write(curT, yRow, sRows, ypRow, spRows)

	iEval := 1
	iInterp := 0
	st := stStepping
	tEnd := tEval[len(tEval)-1]

loop:
	for {
		switch st {
		case stStepping:
			res := d.be.StepOne(tEnd)
			if res.Err != nil || res.Status.IsFailure() {
				flag = res.Status
				if !flag.IsFailure() {
					flag = status.ErrFail
				}
				lastErr = res.Err
				st = stFail
				continue
			}
			if res.T == curT {
				flag = status.ErrFail
				lastErr = &Error{Time: res.T, Step: rec.ISave(), Message: "duplicate time returned by step_one, stall detected"}
				st = stFail
				continue
			}

			prevT := curT
			curT = res.T
			curY = res.Y
			curYp = res.Yp
			if d.sens {
				curS = res.S
				curSp = res.Sp
			}
			lastRawY = curY

			guard.Add(curT - prevT)

			isStop := res.Status == status.StopReturn
			isRoot := res.Status == status.RootReturn

			// 1. Interp catch-up.
			if saveInterp {
				for iInterp < len(tInterp) && tInterp[iInterp] <= curT {
					ti := tInterp[iInterp]
					yD, err := d.be.GetDky(ti, 0)
					if err != nil {
						flag = status.ErrFail
						lastErr = fmt.Errorf("get_dky at interp point %g: %w", ti, err)
						st = stFail
						break
					}
					var sD [][]float64
					if d.sens {
						sD, _ = d.be.GetDkySens(ti, 0)
					}
					yRow, sRows := d.stager.Stage(ti, yD, sD, inputs)
					var ypRow []float64
					if d.solver.Hermite {
						ypRow, _ = d.be.GetDky(ti, 1)
					}
					rec.Write(ti, yRow, sRows, ypRow, nil)
					iInterp++
				}
				if st == stFail {
					continue
				}
				if isStop || isRoot {
					// Restore working vectors to t_val before recording
					// the stop/root snapshot.
					if yD, err := d.be.GetDky(curT, 0); err == nil {
						curY = yD
					}
					if d.solver.Hermite {
						if ypD, err := d.be.GetDky(curT, 1); err == nil {
							curYp = ypD
						}
					}
					if d.sens {
						if sD, err := d.be.GetDkySens(curT, 0); err == nil {
							curS = sD
						}
					}
				}
			}

			// 2. Adaptive.
			if saveAdaptive && !isStop && !isRoot {
				yRow, sRows := d.stager.Stage(curT, curY, curS, inputs)
				var ypRow []float64
				var spRows [][]float64
				if d.solver.Hermite {
					ypRow = curYp
					if d.sens && d.stager.Mode() == outputs.FullState {
						spRows = curSp
					}
				}
				rec.Write(curT, yRow, sRows, ypRow, spRows)
			}

			// 3. Stop/root.
			if isStop || isRoot {
				yRow, sRows := d.stager.Stage(curT, curY, curS, inputs)
				var ypRow []float64
				var spRows [][]float64
				if d.solver.Hermite {
					ypRow = curYp
					if d.sens && d.stager.Mode() == outputs.FullState {
						spRows = curSp
					}
				}
				rec.Write(curT, yRow, sRows, ypRow, spRows)
			}

			if isRoot {
				flag = status.RootReturn
				st = stDone
				continue
			}

			if isStop {
				if iEval == len(tEval)-1 {
					flag = status.Success
					st = stDone
					continue
				}
				st = stStopDiscont
				continue
			}

			if guard.Violated() {
				flag = status.ErrFail
				lastErr = &Error{Time: curT, Step: rec.ISave(), Message: "no-progress guard violated"}
				st = stFail
				continue
			}

			st = stStepping

		case stStopDiscont:
			iEval++
			if err := d.be.SetStopTime(tEval[iEval]); err != nil {
				flag = status.BadInput
				lastErr = err
				st = stFail
				continue
			}
			if err := d.be.Reinit(curT, curY, curYp); err != nil {
				flag = status.ErrFail
				lastErr = err
				st = stFail
				continue
			}
			tNext := consistentinit.PerturbedNext(curT, true)
			newY, newYp, err := d.ci.General(curT, backend.FixDifferential, tNext)
			if err != nil {
				flag = status.ErrFail
				lastErr = err
				st = stFail
				continue
			}
			curY, curYp = newY, newYp
			lastRawY = curY
			st = stStepping

		case stDone, stFail:
			break loop
		}
	}

	d.lastErr = lastErr
	sd := resultassembler.Assemble(d.stager.Mode(), rec.Freeze(), flag, d.nStates, lastRawY)
	return sd, nil
}

// LastError returns the driver-internal diagnostic behind the most
// recent failing flag, if any. Solve's own error return is reserved for
// synchronous configuration errors; integration failures are reported
// only through the flag plus this accessor, and never abort assembly.
func (d *Driver) LastError() error { return d.lastErr }

// Close releases the back-end.
func (d *Driver) Close() error {
	return d.be.Close()
}
