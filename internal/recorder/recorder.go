// Package recorder implements StepRecorder: it owns the growing buffers
// (time, states, sensitivities, optional derivatives) and the
// write-cursor, and knows the two OutputStager layouts.
package recorder

// Recorder owns the row-major snapshot buffers. It does not deduplicate
// times; the driver guarantees monotonicity.
type Recorder struct {
	width   int // n_states (full-state) or L (outputs-only)
	nParams int
	hermite bool

	iSave int
	t     []float64
	y     [][]float64
	s     [][][]float64 // [i][p][width], nil per-row if sensitivities disabled
	yp    [][]float64
	sp    [][][]float64

	sensEnabled bool
	frozen      bool
}

// New constructs a Recorder for the given per-snapshot row width,
// parameter count, and Hermite-derivative recording flag.
func New(width, nParams int, sensEnabled, hermite bool) *Recorder {
	return &Recorder{width: width, nParams: nParams, sensEnabled: sensEnabled, hermite: hermite}
}

// Reserve grows the buffers' capacity to n, iff current capacity is
// smaller. It never shrinks or discards already-written entries.
func (r *Recorder) Reserve(n int) {
	if n <= cap(r.t) {
		return
	}
	r.t = growF64(r.t, n)
	r.y = growRows(r.y, n)
	if r.sensEnabled {
		r.s = growTensor(r.s, n)
	}
	if r.hermite {
		r.yp = growRows(r.yp, n)
		if r.sensEnabled {
			r.sp = growTensor(r.sp, n)
		}
	}
}

func growF64(buf []float64, n int) []float64 {
	out := make([]float64, len(buf), n)
	copy(out, buf)
	return out
}

func growRows(buf [][]float64, n int) [][]float64 {
	out := make([][]float64, len(buf), n)
	copy(out, buf)
	return out
}

func growTensor(buf [][][]float64, n int) [][][]float64 {
	out := make([][][]float64, len(buf), n)
	copy(out, buf)
	return out
}

// ISave returns the number of valid entries written so far.
func (r *Recorder) ISave() int { return r.iSave }

// Write appends one snapshot at the current cursor, growing the
// underlying slices past their reserved capacity when necessary.
// Growth is by one entry at a time; a doubling policy would trade a
// higher memory high-water mark for fewer reallocations. TODO: revisit
// if profiling shows Write's reallocation cost matters for long
// adaptive-mode runs.
func (r *Recorder) Write(t float64, y []float64, s [][]float64, yp []float64, sp [][]float64) {
	yCopy := append([]float64(nil), y...)

	if r.iSave < len(r.t) {
		r.t[r.iSave] = t
		r.y[r.iSave] = yCopy
	} else {
		r.t = append(r.t, t)
		r.y = append(r.y, yCopy)
	}

	if r.sensEnabled {
		sCopy := copyRows(s)
		if r.iSave < len(r.s) {
			r.s[r.iSave] = sCopy
		} else {
			r.s = append(r.s, sCopy)
		}
	}

	if r.hermite {
		ypCopy := append([]float64(nil), yp...)
		if r.iSave < len(r.yp) {
			r.yp[r.iSave] = ypCopy
		} else {
			r.yp = append(r.yp, ypCopy)
		}
		if r.sensEnabled {
			spCopy := copyRows(sp)
			if r.iSave < len(r.sp) {
				r.sp[r.iSave] = spCopy
			} else {
				r.sp = append(r.sp, spCopy)
			}
		}
	}

	r.iSave++
}

func copyRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Frozen buffers, released to a ResultAssembler. Buffer contains only
// the valid [0:ISave) prefix.
type Frozen struct {
	Width   int
	NParams int
	Hermite bool
	T       []float64
	Y       [][]float64
	S       [][][]float64
	Yp      [][]float64
	Sp      [][][]float64
}

// Freeze releases ownership of the buffers to the caller (the
// ResultAssembler). The recorder must not be used afterward.
func (r *Recorder) Freeze() Frozen {
	f := Frozen{
		Width:   r.width,
		NParams: r.nParams,
		Hermite: r.hermite,
		T:       r.t[:r.iSave],
		Y:       r.y[:r.iSave],
	}
	if r.sensEnabled {
		f.S = r.s[:r.iSave]
	}
	if r.hermite {
		f.Yp = r.yp[:r.iSave]
		if r.sensEnabled {
			f.Sp = r.sp[:r.iSave]
		}
	}
	r.frozen = true
	return f
}

// IsFrozen reports whether Freeze has already been called.
func (r *Recorder) IsFrozen() bool { return r.frozen }
