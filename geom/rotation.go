package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RotationBetween returns the rotation taking the unit vector from onto the
// unit vector to.
//
// When from and to are antiparallel the rotation axis is not unique. An
// arbitrary axis perpendicular to from is used in that case.
func RotationBetween(from, to r3.Vec) r3.Rotation {
	dot := r3.Dot(from, to)
	axis := r3.Cross(from, to)
	sin := r3.Norm(axis)

	if sin <= 1e-12 {
		if dot > 0 {
			return r3.NewRotation(0, r3.Vec{X: 1})
		}
		return r3.NewRotation(math.Pi, Perpendicular(from))
	}

	return r3.NewRotation(math.Atan2(sin, dot), r3.Scale(1/sin, axis))
}

// Perpendicular returns a unit vector perpendicular to v, which must be
// non-zero.
func Perpendicular(v r3.Vec) r3.Vec {
	var p r3.Vec
	if math.Abs(v.X) > math.Abs(v.Z) {
		p = r3.Vec{X: -v.Y, Y: v.X}
	} else {
		p = r3.Vec{Y: -v.Z, Z: v.Y}
	}
	return r3.Unit(p)
}
