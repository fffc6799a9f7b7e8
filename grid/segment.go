package grid

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/curvgrid/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultThickness is the cross-section scale of a placed edge.
	DefaultThickness = 0.02
	// MinDensity is the smallest vertex count an edge can have.
	MinDensity = 2
	// MaxDensity caps the vertex count of an edge.
	MaxDensity = 1 << 16
)

// Coordinates is the part of a coordinate system the Cache needs: curvature
// along each axis, integrated over a window around a point.
type Coordinates interface {
	Curvature(p r3.Vec, halfWidth float64) ([3]float64, error)
}

// BuildError is returned when a segment cannot be built.
type BuildError struct {
	Key   Key
	Start r3.Vec
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s segment at (%g, %g, %g): %s",
		e.Key.Dir, e.Start.X, e.Start.Y, e.Start.Z, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Segment is a built grid segment.
type Segment struct {
	// Bucket is the vertex count of the segment's edge.
	Bucket int
	// Transform places the reference edge onto the segment.
	Transform geom.Transform
	Dir       Dir
	Curvature float64
	// Start and End are the parametric endpoints the segment was built
	// between.
	Start, End r3.Vec
}

// Density returns the number of vertices used to draw a segment with the
// given curvature. It is non-decreasing for non-negative curvature and is
// never less than MinDensity.
func Density(c float64) int {
	v := math.Round(3*c + 2*math.Log(1+math.Abs(c)) + 2)
	switch {
	case !(v >= MinDensity):
		return MinDensity
	case v > MaxDensity:
		return MaxDensity
	}
	return int(v)
}

// buildSegment builds the segment for k, which runs from p0 to p1. ok is
// false if the segment is degenerate.
func buildSegment(
	sys Coordinates, k Key, p0, p1 r3.Vec, thickness, halfWidth float64,
) (seg *Segment, ok bool, err error) {
	t, _, ok := geom.Placement(p0, p1, thickness)
	if !ok {
		return nil, false, nil
	}

	mid := r3.Scale(0.5, r3.Add(p0, p1))
	c, err := sys.Curvature(mid, halfWidth)
	if err != nil {
		return nil, false, &BuildError{Key: k, Start: p0, Err: err}
	}

	cu := c[k.Dir.Axis()]
	return &Segment{
		Bucket: Density(cu), Transform: t, Dir: k.Dir, Curvature: cu,
		Start: p0, End: p1,
	}, true, nil
}
