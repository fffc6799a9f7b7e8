package grid

import (
	"image/color"

	"github.com/phil-mansfield/curvgrid/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dir is the parametric axis a segment runs along.
type Dir uint8

const (
	U Dir = iota
	V
	W
)

var dirNames = [3]string{"U", "V", "W"}

func (d Dir) String() string {
	if int(d) < len(dirNames) {
		return dirNames[d]
	}
	return "Dir(?)"
}

// Axis returns the index of the axis d runs along.
func (d Dir) Axis() int { return int(d) }

// Color returns the color segments running along d are tagged with.
func (d Dir) Color() color.RGBA {
	switch d {
	case U:
		return color.RGBA{R: 0xff, A: 0xff}
	case V:
		return color.RGBA{G: 0xff, A: 0xff}
	case W:
		return color.RGBA{B: 0xff, A: 0xff}
	}
	return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// Key identifies one segment of the grid lattice by integer indices: the
// cell it covers along Dir and the grid lines it runs along on the other two
// axes, in (Dir+1, Dir+2) order. Positions are never part of a Key; they are
// recomputed from the Config by a Lattice.
type Key struct {
	Dir   Dir
	Cell  int
	Lines [2]int
}

// Lattice is the set of cells and grid lines described by a Config.
type Lattice struct {
	cells [3][]geom.Cell
	// pos holds every line position, indexed by line index. used holds the
	// indices of the lines segments are drawn along: coincident lines are
	// only drawn once.
	pos  [3][]float64
	used [3][]int
}

// NewLattice returns the lattice of cfg.
func NewLattice(cfg Config) *Lattice {
	g := cfg.Grid()
	l := &Lattice{}
	for i := range g {
		l.pos[i] = g[i].LinePositions()
		for j, x := range l.pos[i] {
			if j > 0 && l.pos[i][j-1] == x {
				continue
			}
			l.used[i] = append(l.used[i], j)
		}
	}
	for i := range g {
		if len(l.used[(i+1)%3]) > 0 && len(l.used[(i+2)%3]) > 0 {
			l.cells[i] = g[i].Cells()
		}
	}
	return l
}

// Len returns the number of keys in l.
func (l *Lattice) Len() int {
	n := 0
	for d := 0; d < 3; d++ {
		n += len(l.cells[d]) * len(l.used[(d+1)%3]) * len(l.used[(d+2)%3])
	}
	return n
}

// Keys returns the key of every segment in l, in a deterministic order.
// Segments along U sweep the cells of u over every pair of v and w lines, V
// sweeps v over w and u lines, and W sweeps w over u and v lines.
func (l *Lattice) Keys() []Key {
	keys := make([]Key, 0, l.Len())
	for d := U; d <= W; d++ {
		i, j, k := d.Axis(), (d.Axis()+1)%3, (d.Axis()+2)%3
		for c := range l.cells[i] {
			for _, a := range l.used[j] {
				for _, b := range l.used[k] {
					keys = append(keys, Key{Dir: d, Cell: c, Lines: [2]int{a, b}})
				}
			}
		}
	}
	return keys
}

// Endpoints returns the parametric start and end points of the segment k.
// ok is false if k does not index into l.
func (l *Lattice) Endpoints(k Key) (p0, p1 r3.Vec, ok bool) {
	if k.Dir > W {
		return r3.Vec{}, r3.Vec{}, false
	}
	i, j, m := k.Dir.Axis(), (k.Dir.Axis()+1)%3, (k.Dir.Axis()+2)%3
	if k.Cell < 0 || k.Cell >= len(l.cells[i]) ||
		k.Lines[0] < 0 || k.Lines[0] >= len(l.pos[j]) ||
		k.Lines[1] < 0 || k.Lines[1] >= len(l.pos[m]) {
		return r3.Vec{}, r3.Vec{}, false
	}

	var a, b [3]float64
	a[i], b[i] = l.cells[i][k.Cell].Start, l.cells[i][k.Cell].End
	a[j], b[j] = l.pos[j][k.Lines[0]], l.pos[j][k.Lines[0]]
	a[m], b[m] = l.pos[m][k.Lines[1]], l.pos[m][k.Lines[1]]
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}, r3.Vec{X: b[0], Y: b[1], Z: b[2]}, true
}

// Keys returns the key of every segment in the grid described by cfg. See
// Lattice.Keys.
func Keys(cfg Config) []Key { return NewLattice(cfg).Keys() }
