// Package poly provides a concrete, scalar-valued expr.OutputExpr
// implementation: weighted monomials of the state vector, sufficient to
// exercise every term of OutputStager's chain-rule formula without
// depending on a symbolic-AD or MLIR-compiled expression backend.
package poly

import "github.com/dae-go/daesolve/internal/expr"

// Term is w * y[Index]^Power.
type Term struct {
	Index int
	Power int
	Weight float64
}

// Monomial is a scalar output expression f(y) = Σ terms, with an
// optional explicit (non-chain-rule) dependence on a subset of
// parameters via ExplicitDp.
type Monomial struct {
	Terms []Term
	// ExplicitDp maps parameter index -> constant ∂f/∂p contribution that
	// does not flow through y (e.g. f depends on inputs[p] directly).
	ExplicitDp map[int]float64
}

var _ expr.OutputExpr = (*Monomial)(nil)

func (m *Monomial) NNZOut() int { return 1 }

func (m *Monomial) OutShape(d int) int {
	if d == 0 {
		return 1
	}
	return 0
}

func (m *Monomial) Call(t float64, y, inputs []float64) []float64 {
	sum := 0.0
	for _, term := range m.Terms {
		if term.Index >= len(y) {
			continue
		}
		sum += term.Weight * ipow(y[term.Index], term.Power)
	}
	return []float64{sum}
}

func (m *Monomial) GetCol() []int {
	cols := make([]int, 0, len(m.Terms))
	seen := map[int]bool{}
	for _, term := range m.Terms {
		if !seen[term.Index] {
			seen[term.Index] = true
			cols = append(cols, term.Index)
		}
	}
	return cols
}

func (m *Monomial) DfDy(t float64, y, inputs []float64) []float64 {
	cols := m.GetCol()
	vals := make([]float64, len(cols))
	for i, c := range cols {
		d := 0.0
		for _, term := range m.Terms {
			if term.Index != c || term.Index >= len(y) {
				continue
			}
			if term.Power == 0 {
				continue
			}
			d += term.Weight * float64(term.Power) * ipow(y[term.Index], term.Power-1)
		}
		vals[i] = d
	}
	return vals
}

func (m *Monomial) GetRow() []int {
	rows := make([]int, 0, len(m.ExplicitDp))
	for p := range m.ExplicitDp {
		rows = append(rows, p)
	}
	return rows
}

func (m *Monomial) DfDpExplicit(t float64, y, inputs []float64) []float64 {
	rows := m.GetRow()
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = m.ExplicitDp[r]
	}
	return vals
}

func ipow(base float64, exp int) float64 {
	if exp == 0 {
		return 1
	}
	result := 1.0
	neg := exp < 0
	if neg {
		exp = -exp
	}
	for i := 0; i < exp; i++ {
		result *= base
	}
	if neg {
		return 1 / result
	}
	return result
}

// NewSquare returns f(y) = y[idx]^2, a common scalar output shape.
func NewSquare(idx int) *Monomial {
	return &Monomial{Terms: []Term{{Index: idx, Power: 2, Weight: 1}}}
}

// NewLinear returns f(y) = y[idx], the identity readout used when a
// caller wants a single state component exposed as an "output" without
// pulling in the whole state vector.
func NewLinear(idx int) *Monomial {
	return &Monomial{Terms: []Term{{Index: idx, Power: 1, Weight: 1}}}
}
