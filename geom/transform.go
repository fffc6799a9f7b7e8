/*package geom contains the parametric-space geometry used to place grid
segments: 4x4 affine transforms, rotations between directions, and the
lines and unit cells of each parametric axis.
*/
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a 4x4 affine transform stored in row-major order. It acts on
// column vectors, so a.Mul(b) applies b first.
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform which translates by v.
func Translation(v r3.Vec) Transform {
	return Transform{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	}
}

// Scaling returns a transform which scales each axis by the corresponding
// component of s.
func Scaling(s r3.Vec) Transform {
	return Transform{
		s.X, 0, 0, 0,
		0, s.Y, 0, 0,
		0, 0, s.Z, 0,
		0, 0, 0, 1,
	}
}

// Rotation returns the transform corresponding to the rotation r.
func Rotation(r r3.Rotation) Transform {
	cx := r.Rotate(r3.Vec{X: 1})
	cy := r.Rotate(r3.Vec{Y: 1})
	cz := r.Rotate(r3.Vec{Z: 1})
	return Transform{
		cx.X, cy.X, cz.X, 0,
		cx.Y, cy.Y, cz.Y, 0,
		cx.Z, cy.Z, cz.Z, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the product t * u.
func (t Transform) Mul(u Transform) Transform {
	var out Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += t[4*i+k] * u[4*k+j]
			}
			out[4*i+j] = sum
		}
	}
	return out
}

// Apply maps the point v through t.
func (t *Transform) Apply(v r3.Vec) r3.Vec {
	x := t[0]*v.X + t[1]*v.Y + t[2]*v.Z + t[3]
	y := t[4]*v.X + t[5]*v.Y + t[6]*v.Z + t[7]
	z := t[8]*v.X + t[9]*v.Y + t[10]*v.Z + t[11]
	w := t[12]*v.X + t[13]*v.Y + t[14]*v.Z + t[15]
	if w != 1 && w != 0 {
		x, y, z = x/w, y/w, z/w
	}
	return r3.Vec{X: x, Y: y, Z: z}
}

func (t Transform) String() string {
	return fmt.Sprintf("[%.4g %.4g %.4g %.4g; %.4g %.4g %.4g %.4g; "+
		"%.4g %.4g %.4g %.4g; %.4g %.4g %.4g %.4g]",
		t[0], t[1], t[2], t[3], t[4], t[5], t[6], t[7],
		t[8], t[9], t[10], t[11], t[12], t[13], t[14], t[15])
}

// Placement returns the transform taking the reference edge running from
// (0, 0, 0) to (1, 0, 0) onto the segment p0 -> p1, along with the length of
// that segment. The cross-section of the edge is scaled by thickness. ok is
// false if the segment is degenerate.
func Placement(p0, p1 r3.Vec, thickness float64) (t Transform, length float64, ok bool) {
	dir := r3.Sub(p1, p0)
	length = r3.Norm(dir)
	if !(length > eps) {
		return Identity(), length, false
	}

	rot := RotationBetween(r3.Vec{X: 1}, r3.Scale(1/length, dir))
	t = Translation(p0).Mul(Rotation(rot)).Mul(
		Scaling(r3.Vec{X: length, Y: thickness, Z: thickness}),
	)
	return t, length, true
}

// eps is the float64 machine epsilon.
var eps = math.Nextafter(1, 2) - 1
