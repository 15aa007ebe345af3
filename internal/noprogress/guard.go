// Package noprogress implements the sliding-window stall detector the
// driver consults between steps.
package noprogress

// Guard is a fixed-size circular buffer of step sizes. It flags a stalled
// integration when the sum of the last window_size step sizes falls below
// threshold_sec.
type Guard struct {
	window    []float64
	pos       int
	threshold float64
	disabled  bool
}

// New constructs a Guard pre-filled with threshold values, so it is not
// armed immediately (an empty window would otherwise report a violation
// on the very first call). windowSize == 0 or thresholdSec == 0 disables
// the guard entirely; all operations then no-op.
func New(windowSize int, thresholdSec float64) *Guard {
	if windowSize <= 0 || thresholdSec <= 0 {
		return &Guard{disabled: true}
	}
	g := &Guard{
		window:    make([]float64, windowSize),
		threshold: thresholdSec,
	}
	for i := range g.window {
		g.window[i] = thresholdSec
	}
	return g
}

// Add overwrites the oldest entry in the window with dt.
func (g *Guard) Add(dt float64) {
	if g.disabled {
		return
	}
	g.window[g.pos] = dt
	g.pos = (g.pos + 1) % len(g.window)
}

// Violated reports whether the window's sum is strictly below the
// threshold. It short-circuits as soon as the partial sum reaches the
// threshold, since step sizes are always non-negative.
func (g *Guard) Violated() bool {
	if g.disabled {
		return false
	}
	sum := 0.0
	for _, dt := range g.window {
		sum += dt
		if sum >= g.threshold {
			return false
		}
	}
	return true
}

// Disabled reports whether this guard was constructed with a zero window
// size or threshold and therefore never fires.
func (g *Guard) Disabled() bool { return g.disabled }
