// Package canvas holds the bounding-box scaling and fixed-size rune
// grid shared by every trajectory-shaped plot in this repository: 2-D
// phase portraits, bifurcation diagrams and the SVG trajectory export
// all reduce to "map a set of numeric samples into a padded coordinate
// box, then rasterize." Factoring that math out once means each
// caller's own file only has to describe what makes its plot different
// (a 2-D point cloud vs. an index-swept value column) rather than
// re-deriving the padding and scaling arithmetic.
package canvas

// Bounds2D returns the bounding box of points, expanded by pad on each
// axis (0.1 == 10%) so plotted points don't sit flush against the plot
// edge. A degenerate (zero-range) axis is padded as if its span were 1,
// so it ends up 2*pad wide. The parameter type is
// the same unnamed (x, y) struct every caller in this repository
// already builds its point slices as, so no conversion is needed at
// call sites.
func Bounds2D(points []struct{ X, Y float64 }, pad float64) (minX, maxX, minY, maxY float64) {
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	minX, maxX = padRange(minX, maxX, pad)
	minY, maxY = padRange(minY, maxY, pad)
	return minX, maxX, minY, maxY
}

// Bounds1D is Bounds2D's scalar analogue, for callers (like a
// bifurcation diagram) whose vertical axis is a plain value column
// rather than a paired (x, y) sample.
func Bounds1D(values []float64, pad float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return padRange(min, max, pad)
}

func padRange(lo, hi, pad float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * pad
	hi += span * pad
	return lo, hi
}

// ScaleCol maps v in [min, max] onto a column in [0, width).
func ScaleCol(v, min, max float64, width int) int {
	rng := max - min
	if rng == 0 {
		rng = 1
	}
	return int((v - min) / rng * float64(width-1))
}

// ScaleRow maps v in [min, max] onto a row in [0, height), inverted so
// larger values plot nearer the top.
func ScaleRow(v, min, max float64, height int) int {
	rng := max - min
	if rng == 0 {
		rng = 1
	}
	return height - 1 - int((v-min)/rng*float64(height-1))
}

// Grid is a fixed-size, space-filled rune canvas addressed (row, col)
// with row 0 at the top.
type Grid struct {
	cells         [][]rune
	width, height int
}

func NewGrid(width, height int) *Grid {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
		for j := range cells[i] {
			cells[i][j] = ' '
		}
	}
	return &Grid{cells: cells, width: width, height: height}
}

// Set marks (row, col) with r if it falls inside the grid.
func (g *Grid) Set(row, col int, r rune) {
	if row >= 0 && row < g.height && col >= 0 && col < g.width {
		g.cells[row][col] = r
	}
}

// SetIfBlank marks (row, col) with r only if that cell is still blank,
// so axis lines never overwrite a plotted point.
func (g *Grid) SetIfBlank(row, col int, r rune) {
	if row >= 0 && row < g.height && col >= 0 && col < g.width && g.cells[row][col] == ' ' {
		g.cells[row][col] = r
	}
}

// PlotXY scales (x, y) into the grid's coordinate space per bounds and
// marks it.
func (g *Grid) PlotXY(x, y, minX, maxX, minY, maxY float64, mark rune) {
	col := ScaleCol(x, minX, maxX, g.width)
	row := ScaleRow(y, minY, maxY, g.height)
	g.Set(row, col, mark)
}

// DrawAxes draws the x=0 vertical line and y=0 horizontal line where
// they fall within bounds, without overwriting already-plotted points.
func (g *Grid) DrawAxes(minX, maxX, minY, maxY float64) {
	if minX <= 0 && maxX >= 0 {
		col := ScaleCol(0, minX, maxX, g.width)
		for row := 0; row < g.height; row++ {
			g.SetIfBlank(row, col, '│')
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := ScaleRow(0, minY, maxY, g.height)
		for col := 0; col < g.width; col++ {
			g.SetIfBlank(row, col, '─')
		}
	}
}

// String renders the grid, one line per row, newline-terminated.
func (g *Grid) String() string {
	out := make([]byte, 0, g.height*(g.width+1))
	for _, row := range g.cells {
		out = append(out, []byte(string(row))...)
		out = append(out, '\n')
	}
	return string(out)
}
