package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// point is a world-space point stored in the k-d tree.
type point r3.Vec

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	}
	panic("Impossible.")
}

func (p point) Dims() int { return 3 }

// Distance returns the squared distance between p and c.
func (p point) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(r3.Vec(p), r3.Vec(c.(point))))
}

// points implements kdtree.Interface.
type points []point

func (ps points) Index(i int) kdtree.Comparable { return ps[i] }

func (ps points) Len() int { return len(ps) }

func (ps points) Pivot(d kdtree.Dim) int {
	p := plane{points: ps, dim: d}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (ps points) Slice(start, end int) kdtree.Interface { return ps[start:end] }

// plane sorts points along one dimension.
type plane struct {
	points
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
