// Package expr declares the output-expression contract consumed (not
// defined) by the driver: a call operator, nnz_out, out_shape, get_row
// and get_col. Residual/jacobian/event/mass-action expressions belong
// to back-end construction, which is out of scope here; only output
// expressions cross the driver/expression-set boundary.
package expr

// OutputExpr is a single user-supplied output expression f_k(t, y;
// inputs). The reference implementation in ./poly restricts itself to
// scalar-valued expressions (NNZOut() == 1); OutputStager loops over
// NNZOut() generically so a richer back-end-native expression set could
// return more than one component per k.
type OutputExpr interface {
	// Call evaluates f_k(t, y, inputs) -> out, length NNZOut().
	Call(t float64, y, inputs []float64) []float64

	// NNZOut is the number of scalar entries this expression contributes
	// to the output row.
	NNZOut() int

	// OutShape returns the length of dimension d of the expression's
	// native (pre-flatten) output shape.
	OutShape(d int) int

	// GetRow returns the parameter indices at which the expression's
	// explicit ∂f_k/∂p is potentially nonzero (sparse pattern).
	GetRow() []int

	// GetCol returns the state indices at which ∂f_k/∂y is potentially
	// nonzero (sparse pattern).
	GetCol() []int

	// DfDpExplicit returns the explicit ∂f_k/∂p values at the indices of
	// GetRow(), evaluated at (t, y, inputs).
	DfDpExplicit(t float64, y, inputs []float64) []float64

	// DfDy returns ∂f_k/∂y values at the indices of GetCol(), evaluated
	// at (t, y, inputs).
	DfDy(t float64, y, inputs []float64) []float64
}

// Set is the ordered collection of output expressions a solve request
// evaluates instead of returning the full state vector.
type Set []OutputExpr

// TotalNNZ sums NNZOut() over every expression in the set — the output
// row length L used by ResultAssembler's axis triple.
func (s Set) TotalNNZ() int {
	n := 0
	for _, e := range s {
		n += e.NNZOut()
	}
	return n
}
