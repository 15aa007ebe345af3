package bdf

import (
	"fmt"
	"math"

	"github.com/dae-go/daesolve/internal/backend"
	"github.com/dae-go/daesolve/internal/linalg"
	"github.com/dae-go/daesolve/internal/status"
)

const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 5.0
)

// bdfCoeffs returns the leading coefficient c0 (on y_n) and the history
// weights (on y_{n-1}, y_{n-2}, ...) of the order-th backward
// differentiation formula for a step dt taken after a previous step of
// length dtPrev (order 2 uses the variable-step form with w = dt/dtPrev,
// which reduces to 3/2, -2, 1/2 over dt when the steps are equal), so that
// y'_n ~= c0*y_n + sum_i histWeights[i]*hist[i].
func bdfCoeffs(order int, dt, dtPrev float64) (c0 float64, histWeights []float64) {
	switch order {
	case 2:
		w := dt / dtPrev
		return (1 + 2*w) / ((1 + w) * dt), []float64{-(1 + w) / dt, w * w / ((1 + w) * dt)}
	default:
		return 1.0 / dt, []float64{-1.0 / dt}
	}
}

// corrector solves the implicit BDF corrector equation for y_n at the
// given order and step, returning (y_n, yp_n).
func (b *Backend) corrector(tNew float64, order int, dt float64) ([]float64, []float64, error) {
	n := b.cfg.NumStates
	c0, w := bdfCoeffs(order, dt, b.lastSpacing())

	hist := make([]float64, n)
	for k, weight := range w {
		if k >= len(b.hist) {
			break
		}
		hy := b.hist[len(b.hist)-1-k].y
		for i := 0; i < n; i++ {
			hist[i] += weight * hy[i]
		}
	}

	guess := append([]float64(nil), b.hist[len(b.hist)-1].y...)
	yNew, err := b.newtonSolve(func(y []float64) []float64 {
		yp := make([]float64, n)
		for i := range yp {
			yp[i] = c0*y[i] + hist[i]
		}
		return b.cfg.Residual(tNew, y, yp, b.cfg.Inputs)
	}, guess, n)
	if err != nil {
		return nil, nil, err
	}
	ypNew := make([]float64, n)
	for i := range ypNew {
		ypNew[i] = c0*yNew[i] + hist[i]
	}
	return yNew, ypNew, nil
}

// StepOne advances the integration by one accepted internal step, never
// past tStop, controlling step size by comparing the order-1 and
// order-2 correctors (a cheap proxy for a proper embedded-order error
// estimate, in the spirit of RK45.StepAdaptive's ratio-based scaling).
func (b *Backend) StepOne(tStop float64) backend.StepResult {
	if b.closed {
		return failResult(b.t, status.ErrFail, fmt.Errorf("bdf: step_one called on a closed backend"))
	}
	if b.tStop > b.t && b.tStop < tStop {
		tStop = b.tStop
	}

	dt := b.dt
	isStopStep := false
	if b.t+dt >= tStop {
		dt = tStop - b.t
		isStopStep = true
	}
	if dt <= b.cfg.MinStep {
		dt = b.cfg.MinStep
	}

	for {
		b.step++
		if b.step > b.cfg.MaxNumSteps {
			return failResult(b.t, status.ErrFail, fmt.Errorf("bdf: exceeded max_num_steps (%d)", b.cfg.MaxNumSteps))
		}

		tNew := b.t + dt
		y1, _, err1 := b.corrector(tNew, 1, dt)
		if err1 != nil {
			dt = b.shrink(dt, 4.0)
			if dt < b.cfg.MinStep {
				return failResult(b.t, status.ErrFail, fmt.Errorf("bdf: newton failed to converge and step size collapsed: %w", err1))
			}
			isStopStep = b.t+dt >= tStop
			if isStopStep {
				dt = tStop - b.t
			}
			continue
		}

		order := b.order
		if len(b.hist) < 2 {
			order = 1
		} else if order < 2 {
			order = 2
		}

		yUse, ypUse := y1, y1
		errRatio := 0.0
		if order == 2 {
			y2, yp2, err2 := b.corrector(tNew, 2, dt)
			if err2 != nil {
				dt = b.shrink(dt, 4.0)
				if dt < b.cfg.MinStep {
					return failResult(b.t, status.ErrFail, fmt.Errorf("bdf: newton failed to converge and step size collapsed: %w", err2))
				}
				isStopStep = b.t+dt >= tStop
				if isStopStep {
					dt = tStop - b.t
				}
				continue
			}
			errRatio = weightedNorm(y2, y1, b.cfg.RelTol, b.cfg.AbsTol)
			yUse, ypUse = y2, yp2
		} else {
			_, ypBoot, _ := b.correctorDerivative(tNew, 1, dt, y1)
			ypUse = ypBoot
		}

		if errRatio > 1 && !isStopStep {
			dt = b.shrink(dt, math.Pow(errRatio, 0.5))
			if dt < b.cfg.MinStep {
				dt = b.cfg.MinStep
			}
			continue
		}

		// Accept.
		b.order = order
		accepted := tNew
		b.tPrev, b.yPrev, b.ypPrev = b.t, b.y, b.yp
		b.t, b.y, b.yp = accepted, yUse, ypUse
		b.tCur, b.yCur, b.ypCur = accepted, yUse, ypUse
		if b.sens {
			b.advanceSensitivities(accepted, order, dt, yUse, ypUse)
		}

		b.hist = append(b.hist, histPoint{t: accepted, y: append([]float64(nil), yUse...)})
		if len(b.hist) > 4 {
			b.hist = b.hist[len(b.hist)-4:]
		}

		if !isStopStep && errRatio > 0 {
			b.dt = dt * clamp(safety*math.Pow(errRatio, -1.0/3.0), minScale, maxScale)
		} else if !isStopStep {
			b.dt = dt * maxScale
		} else {
			b.dt = dt
		}
		if b.cfg.MaxStep > 0 && b.dt > b.cfg.MaxStep {
			b.dt = b.cfg.MaxStep
		}

		if rootT, rootY, rootYp, found := b.locateRoot(); found {
			return backend.StepResult{T: rootT, Y: rootY, Yp: rootYp, S: b.S, Sp: b.Sp, Status: status.RootReturn}
		}

		if isStopStep {
			return backend.StepResult{T: accepted, Y: yUse, Yp: ypUse, S: b.S, Sp: b.Sp, Status: status.StopReturn}
		}
		return backend.StepResult{T: accepted, Y: yUse, Yp: ypUse, S: b.S, Sp: b.Sp, Status: status.Success}
	}
}

// correctorDerivative recomputes yp for an already-solved y at the
// given order/step (used on bootstrap steps where only order 1 ran).
func (b *Backend) correctorDerivative(tNew float64, order int, dt float64, y []float64) ([]float64, []float64, error) {
	n := b.cfg.NumStates
	c0, w := bdfCoeffs(order, dt, b.lastSpacing())
	hist := make([]float64, n)
	for k, weight := range w {
		if k >= len(b.hist) {
			break
		}
		hy := b.hist[len(b.hist)-1-k].y
		for i := 0; i < n; i++ {
			hist[i] += weight * hy[i]
		}
	}
	yp := make([]float64, n)
	for i := range yp {
		yp[i] = c0*y[i] + hist[i]
	}
	return y, yp, nil
}

// lastSpacing returns the time between the two newest history points,
// or 0 when fewer than two are held.
func (b *Backend) lastSpacing() float64 {
	if len(b.hist) < 2 {
		return 0
	}
	return b.hist[len(b.hist)-1].t - b.hist[len(b.hist)-2].t
}

func (b *Backend) shrink(dt, factor float64) float64 {
	scale := clamp(safety/factor, minScale, 1.0)
	return dt * scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func weightedNorm(a, b []float64, rtol, atol float64) float64 {
	m := 0.0
	for i := range a {
		scale := atol + rtol*math.Max(math.Abs(a[i]), math.Abs(b[i]))
		if scale == 0 {
			continue
		}
		if d := math.Abs(a[i]-b[i]) / scale; d > m {
			m = d
		}
	}
	return m
}

// advanceSensitivities propagates S_p, Sp_p one accepted step using the
// staggered-direct method: the Newton Jacobian J = Jy + c0*Jyp already
// solved for y_n is reused (recomputed here at the converged point) to
// linearly solve for each parameter's sensitivity, exactly the way
// IDAS/CVODES stage forward sensitivities off the corrector's factored
// Jacobian instead of integrating a second nonlinear system.
func (b *Backend) advanceSensitivities(tNew float64, order int, dt float64, yNew, ypNew []float64) {
	n := b.cfg.NumStates
	c0, w := bdfCoeffs(order, dt, b.lastSpacing())

	jy := jacobianOf(func(y []float64) []float64 {
		return b.cfg.Residual(tNew, y, ypNew, b.cfg.Inputs)
	}, yNew, n, b.cfg.ParamEC)
	jyp := jacobianOf(func(yp []float64) []float64 {
		return b.cfg.Residual(tNew, yNew, yp, b.cfg.Inputs)
	}, ypNew, n, b.cfg.ParamEC)

	jNewton := make([][]float64, n)
	for i := 0; i < n; i++ {
		jNewton[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			jNewton[i][j] = jy[i][j] + c0*jyp[i][j]
		}
	}

	newS := make([][]float64, b.nParams)
	newSp := make([][]float64, b.nParams)
	for p := 0; p < b.nParams; p++ {
		histS := make([]float64, n)
		for k, weight := range w {
			if k >= len(b.sHist) {
				break
			}
			hs := b.sHist[len(b.sHist)-1-k][p]
			for i := 0; i < n; i++ {
				histS[i] += weight * hs[i]
			}
		}

		fp := paramColumn(b.cfg.Residual, tNew, yNew, ypNew, b.cfg.Inputs, p, b.cfg.ParamEC)

		rhs := make([]float64, n)
		jypHistS := linalg.MatVec(jyp, histS, b.cfg.Workers)
		for i := 0; i < n; i++ {
			rhs[i] = -(jypHistS[i] + fp[i])
		}

		sp, err := linalg.Solve(jNewton, rhs)
		if err != nil {
			// Singular sensitivity Jacobian: hold the previous value
			// rather than propagate garbage.
			newS[p] = append([]float64(nil), b.S[p]...)
			newSp[p] = make([]float64, n)
			continue
		}
		newS[p] = sp
		spDeriv := make([]float64, n)
		for i := 0; i < n; i++ {
			spDeriv[i] = c0*sp[i] + histS[i]
		}
		newSp[p] = spDeriv
	}

	b.SPrev, b.SpPrev = b.S, b.Sp
	b.S, b.Sp = newS, newSp
	b.SCur, b.SpCur = newS, newSp
	b.sHist = append(b.sHist, copyMat(newS))
	if len(b.sHist) > 4 {
		b.sHist = b.sHist[len(b.sHist)-4:]
	}
}

// paramColumn returns the finite-difference column d(residual)/d(inputs[p]).
func paramColumn(f ResidualFunc, t float64, y, yp, inputs []float64, p int, eps float64) []float64 {
	h := eps * (1 + math.Abs(inputs[p]))
	pert := append([]float64(nil), inputs...)

	pert[p] = inputs[p] + h
	fPlus := f(t, y, yp, pert)
	pert[p] = inputs[p] - h
	fMinus := f(t, y, yp, pert)

	out := make([]float64, len(fPlus))
	for i := range out {
		out[i] = (fPlus[i] - fMinus[i]) / (2 * h)
	}
	return out
}

func failResult(t float64, f status.Flag, err error) backend.StepResult {
	return backend.StepResult{T: t, Status: f, Err: err}
}
