package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Axis is one axis of the parametric grid: its bounds and the number of
// grid lines drawn across it.
type Axis struct {
	Min, Max float64
	Lines    int
}

// Cell is a unit step along an axis, clipped to the axis bounds.
type Cell struct {
	Start, End float64
}

// Len returns the length of the cell.
func (c Cell) Len() float64 { return c.End - c.Start }

// LinePositions returns the positions of the grid lines crossing the axis.
// They are evenly spaced from Min to Max, inclusive. A single line sits at
// Min and a non-positive line count gives no lines at all.
func (a Axis) LinePositions() []float64 {
	switch {
	case a.Lines <= 0:
		return nil
	case a.Lines == 1:
		return []float64{a.Min}
	}
	return floats.Span(make([]float64, a.Lines), a.Min, a.Max)
}

// Cells returns the unit cells covering the axis. Cells start at Min and step
// by one unit while their start is below Max. The final cell is clipped to
// Max.
func (a Axis) Cells() []Cell {
	if !(a.Max > a.Min) || math.IsInf(a.Max-a.Min, 0) {
		return nil
	}

	n := int(math.Ceil(a.Max - a.Min))
	cells := make([]Cell, 0, n)
	for i := 0; ; i++ {
		start := a.Min + float64(i)
		if !(start < a.Max) {
			break
		}
		cells = append(cells, Cell{Start: start, End: math.Min(start+1, a.Max)})
	}
	return cells
}

// Grid describes the three parametric axes of a curved grid.
type Grid [3]Axis

// Width returns the extent of the grid along each axis.
func (g *Grid) Width() [3]float64 {
	return [3]float64{
		g[0].Max - g[0].Min, g[1].Max - g[1].Min, g[2].Max - g[2].Min,
	}
}
