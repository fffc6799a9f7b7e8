/*package spatial indexes the world-space points of a grid for picking.

An Index samples every placed edge of a grid.RenderData, maps the samples
through the coordinate system into world space, and stores them in a k-d
tree. It answers nearest-point and sphere-marching ray queries.
*/
package spatial

import (
	"math"
	"runtime"
	"sort"

	"github.com/phil-mansfield/curvgrid/grid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Evaluator maps parametric points to world space.
type Evaluator interface {
	EvalVec(p r3.Vec) (r3.Vec, error)
}

// chunkSize is the number of edge placements sampled by one worker.
const chunkSize = 256

// Index is an immutable set of world-space points. It is safe for
// concurrent use.
type Index struct {
	pts  points
	tree *kdtree.Tree
}

type job struct {
	edge  *grid.Edge
	insts []grid.Instance
	out   []point
}

// Build samples data through sys and indexes the resulting points. Sampling
// runs in parallel, but Build blocks until the Index is complete. The first
// evaluation error encountered is returned.
func Build(data grid.RenderData, sys Evaluator) (*Index, error) {
	edges := make([]*grid.Edge, 0, len(data))
	for e := range data {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].NbVertices() < edges[j].NbVertices()
	})

	n := 0
	for _, e := range edges {
		n += e.NbVertices() * len(data[e])
	}
	pts := make(points, n)

	jobs := []job{}
	offset := 0
	for _, e := range edges {
		insts := data[e]
		for start := 0; start < len(insts); start += chunkSize {
			end := start + chunkSize
			if end > len(insts) {
				end = len(insts)
			}
			size := (end - start) * e.NbVertices()
			jobs = append(jobs, job{e, insts[start:end], pts[offset : offset+size]})
			offset += size
		}
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range jobs {
		j := &jobs[i]
		g.Go(func() error { return j.sample(sys) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{pts: pts}
	if len(pts) > 0 {
		idx.tree = newTree(pts)
	}
	return idx, nil
}

// newTree builds a k-d tree over a copy of pts, since kdtree.New reorders
// its input.
func newTree(pts points) *kdtree.Tree {
	return kdtree.New(append(points(nil), pts...), false)
}

func (j *job) sample(sys Evaluator) error {
	verts := j.edge.Vertices()
	k := 0
	for i := range j.insts {
		t := &j.insts[i].Transform
		for _, v := range verts {
			w, err := sys.EvalVec(t.Apply(v))
			if err != nil {
				return err
			}
			j.out[k] = point(w)
			k++
		}
	}
	return nil
}

// Len returns the number of indexed points.
func (idx *Index) Len() int { return len(idx.pts) }

// Points returns the indexed points in sampling order.
func (idx *Index) Points() []r3.Vec {
	out := make([]r3.Vec, len(idx.pts))
	for i, p := range idx.pts {
		out[i] = r3.Vec(p)
	}
	return out
}

// Nearest returns the indexed point closest to p. ok is false only if the
// Index is empty.
func (idx *Index) Nearest(p r3.Vec) (q r3.Vec, ok bool) {
	if idx.tree == nil {
		return r3.Vec{}, false
	}
	c, _ := idx.tree.Nearest(point(p))
	if c == nil {
		return r3.Vec{}, false
	}
	return r3.Vec(c.(point)), true
}

// Within returns every indexed point within radius of p.
func (idx *Index) Within(p r3.Vec, radius float64) []r3.Vec {
	if idx.tree == nil || !(radius >= 0) {
		return nil
	}
	keep := kdtree.NewDistKeeper(radius * radius)
	idx.tree.NearestSet(keep, point(p))

	out := []r3.Vec{}
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		out = append(out, r3.Vec(cd.Comparable.(point)))
	}
	return out
}

// RayCast marches from origin along dir in steps of stepRadius/2 until some
// indexed point lies within stepRadius of the marched position or the march
// passes maxLength. On the first step with any points in range, the one
// closest to origin is returned. Both stepRadius and maxLength must be
// finite.
func (idx *Index) RayCast(origin, dir r3.Vec, stepRadius, maxLength float64) (r3.Vec, bool) {
	switch {
	case idx.tree == nil || r3.Norm(dir) == 0:
		return r3.Vec{}, false
	case !(stepRadius > 0) || math.IsInf(stepRadius, 1):
		return r3.Vec{}, false
	case !(maxLength >= 0) || math.IsInf(maxLength, 1):
		return r3.Vec{}, false
	}
	dir = r3.Unit(dir)
	step := stepRadius / 2

	for i := 0; ; i++ {
		t := float64(i) * step
		if t > maxLength {
			return r3.Vec{}, false
		}

		hits := idx.Within(r3.Add(origin, r3.Scale(t, dir)), stepRadius)
		if len(hits) == 0 {
			continue
		}

		best, bestDist := hits[0], r3.Norm2(r3.Sub(hits[0], origin))
		for _, h := range hits[1:] {
			if d := r3.Norm2(r3.Sub(h, origin)); d < bestDist {
				best, bestDist = h, d
			}
		}
		return best, true
	}
}
