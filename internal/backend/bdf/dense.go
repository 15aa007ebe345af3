package bdf

import "fmt"

// GetDky evaluates the cubic Hermite interpolant built from the last
// completed step's endpoints (t_prev, y_prev, yp_prev) and
// (t_cur, y_cur, yp_cur). k=0 returns y(t), k=1 returns y'(t).
func (b *Backend) GetDky(t float64, k int) ([]float64, error) {
	if t < b.tPrev-1e-9 || t > b.tCur+1e-9 {
		return nil, fmt.Errorf("bdf: get_dky time %g outside last step [%g, %g]", t, b.tPrev, b.tCur)
	}
	h := b.tCur - b.tPrev
	if h == 0 {
		if k == 1 {
			return append([]float64(nil), b.ypCur...), nil
		}
		return append([]float64(nil), b.yCur...), nil
	}
	s := (t - b.tPrev) / h
	switch k {
	case 0:
		return hermitePos(b.yPrev, b.ypPrev, b.yCur, b.ypCur, h, s), nil
	case 1:
		return hermiteVel(b.yPrev, b.ypPrev, b.yCur, b.ypCur, h, s), nil
	default:
		return nil, fmt.Errorf("bdf: get_dky only supports k=0,1, got %d", k)
	}
}

// GetDkySens is the linear-interpolation sensitivity analogue of
// GetDky: cubic Hermite recovers exact endpoint derivatives for the
// base state, but S/Sp here are staged only at accepted step endpoints,
// so a lower-order interpolant between (S_prev, Sp_prev) and
// (S_cur, Sp_cur) is used instead.
func (b *Backend) GetDkySens(t float64, k int) ([][]float64, error) {
	if !b.sens {
		return nil, nil
	}
	h := b.tCur - b.tPrev
	s := 0.0
	if h != 0 {
		s = (t - b.tPrev) / h
	}
	out := make([][]float64, b.nParams)
	for p := 0; p < b.nParams; p++ {
		out[p] = make([]float64, b.cfg.NumStates)
		var prev, cur []float64
		if k == 0 {
			prev, cur = b.SPrev[p], b.SCur[p]
		} else {
			prev, cur = b.SpPrev[p], b.SpCur[p]
		}
		for i := range out[p] {
			out[p][i] = (1-s)*prev[i] + s*cur[i]
		}
	}
	return out, nil
}

func hermitePos(y0, yp0, y1, yp1 []float64, h, s float64) []float64 {
	h00 := 2*s*s*s - 3*s*s + 1
	h10 := s*s*s - 2*s*s + s
	h01 := -2*s*s*s + 3*s*s
	h11 := s*s*s - s*s
	out := make([]float64, len(y0))
	for i := range out {
		out[i] = h00*y0[i] + h10*h*yp0[i] + h01*y1[i] + h11*h*yp1[i]
	}
	return out
}

func hermiteVel(y0, yp0, y1, yp1 []float64, h, s float64) []float64 {
	if h == 0 {
		return append([]float64(nil), yp0...)
	}
	dh00 := 6*s*s - 6*s
	dh10 := 3*s*s - 4*s + 1
	dh01 := -6*s*s + 6*s
	dh11 := 3*s*s - 2*s
	out := make([]float64, len(y0))
	for i := range out {
		out[i] = (dh00*y0[i]+dh01*y1[i])/h + dh10*yp0[i] + dh11*yp1[i]
	}
	return out
}

// locateRoot bisects the just-completed step's Hermite interpolant for
// a sign change in any event-function component. Internal state (t, y,
// yp, history) is left at the step's true endpoint regardless of
// whether a root is reported, matching IDA_ROOT_RETURN semantics: the
// next StepOne call resumes from t_cur, not from the reported root time.
func (b *Backend) locateRoot() (t float64, y, yp []float64, found bool) {
	if b.cfg.Event == nil || b.tPrev == b.tCur {
		return 0, nil, nil, false
	}
	gPrev := b.cfg.Event(b.tPrev, b.yPrev)
	gCur := b.cfg.Event(b.tCur, b.yCur)

	crossed := false
	for i := range gPrev {
		if (gPrev[i] < 0) != (gCur[i] < 0) {
			crossed = true
			break
		}
	}
	if !crossed {
		return 0, nil, nil, false
	}

	lo, hi := b.tPrev, b.tCur
	glo := gPrev
	for iter := 0; iter < 60; iter++ {
		mid := 0.5 * (lo + hi)
		ym, _ := b.GetDky(mid, 0)
		gm := b.cfg.Event(mid, ym)

		anySignChangeLoToMid := false
		for i := range glo {
			if (glo[i] < 0) != (gm[i] < 0) {
				anySignChangeLoToMid = true
				break
			}
		}
		if anySignChangeLoToMid {
			hi = mid
		} else {
			lo, glo = mid, gm
		}
		if hi-lo < 1e-10*(1+absf(hi)) {
			break
		}
	}

	rootT := hi
	rootY, _ := b.GetDky(rootT, 0)
	rootYp, _ := b.GetDky(rootT, 1)
	return rootT, rootY, rootYp, true
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
