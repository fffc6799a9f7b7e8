/*package mat contains the small dense-matrix routines needed for metric
tensors: products, transposes, LU decomposition, and determinants.

Operations are split into easy to use methods which allocate their outputs
and slightly less easy to use methods which require explicitly managing the
LU decomposition. Everything except Mult only works on square matrices.
*/
package mat

import (
	"math"
)

// Matrix is a row-major matrix of float64 values.
type Matrix struct {
	Vals          []float64
	Width, Height int
}

// LUFactors holds a partially pivoted LU decomposition of a square matrix.
// Reusing an LUFactors avoids recomputing the decomposition and lets callers
// control allocation.
type LUFactors struct {
	lu Matrix
	// d is the sign of the row permutation.
	d float64
	// singular is set if a zero pivot was encountered.
	singular bool
}

// NewMatrix creates a matrix with the specified values and dimensions.
func NewMatrix(vals []float64, width, height int) *Matrix {
	if width <= 0 {
		panic("width must be positive.")
	} else if height <= 0 {
		panic("height must be positive.")
	} else if width*height != len(vals) {
		panic("height * width must equal len(vals).")
	}

	return &Matrix{Vals: vals, Width: width, Height: height}
}

// At returns the element at row i and column j.
func (m *Matrix) At(i, j int) float64 { return m.Vals[i*m.Width+j] }

// Mult multiplies two matrices together.
func (m1 *Matrix) Mult(m2 *Matrix) *Matrix {
	h, w := m1.Height, m2.Width
	out := NewMatrix(make([]float64, h*w), w, h)
	return m1.MultAt(m2, out)
}

// MultAt multiplies two matrices together and writes the result to out,
// which must not alias either input.
func (m1 *Matrix) MultAt(m2, out *Matrix) *Matrix {
	if m1.Width != m2.Height {
		panic("Multiplication of incompatible matrix sizes.")
	} else if out.Height != m1.Height || out.Width != m2.Width {
		panic("out has the wrong dimensions.")
	}

	for i := range out.Vals {
		out.Vals[i] = 0
	}
	for i := 0; i < m1.Height; i++ {
		for k := 0; k < m1.Width; k++ {
			a := m1.Vals[i*m1.Width+k]
			if a == 0 {
				continue
			}
			for j := 0; j < m2.Width; j++ {
				out.Vals[i*out.Width+j] += a * m2.Vals[k*m2.Width+j]
			}
		}
	}
	return out
}

// Transpose returns a new matrix containing the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(make([]float64, len(m.Vals)), m.Height, m.Width)
	for i := 0; i < m.Height; i++ {
		for j := 0; j < m.Width; j++ {
			out.Vals[j*out.Width+i] = m.Vals[i*m.Width+j]
		}
	}
	return out
}

// Determinant computes the determinant of a square matrix.
func (m *Matrix) Determinant() float64 {
	return m.LU().Determinant()
}

// NewLUFactors creates an LUFactors instance for n x n matrices.
func NewLUFactors(n int) *LUFactors {
	luf := new(LUFactors)
	luf.lu.Vals, luf.lu.Width, luf.lu.Height = make([]float64, n*n), n, n
	luf.d = 1
	return luf
}

// LU returns the LU decomposition of a square matrix.
func (m *Matrix) LU() *LUFactors {
	if m.Width != m.Height {
		panic("m is non-square.")
	}
	luf := NewLUFactors(m.Width)
	m.LUFactorsAt(luf)
	return luf
}

// LUFactorsAt stores the LU decomposition of m in luf. Doolittle
// elimination with partial pivoting.
func (m *Matrix) LUFactorsAt(luf *LUFactors) {
	if luf.lu.Width != m.Width || luf.lu.Height != m.Height {
		panic("luf has different dimensions than m.")
	}

	n := m.Width
	lu := luf.lu.Vals
	copy(lu, m.Vals)
	luf.d = 1
	luf.singular = false

	for k := 0; k < n; k++ {
		maxRow, max := k, math.Abs(lu[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(lu[i*n+k]); v > max {
				maxRow, max = i, v
			}
		}
		if maxRow != k {
			swapRows(k, maxRow, n, lu)
			luf.d = -luf.d
		}

		if lu[k*n+k] == 0 {
			luf.singular = true
			continue
		}

		for i := k + 1; i < n; i++ {
			lu[i*n+k] /= lu[k*n+k]
			tmp := lu[i*n+k]
			for j := k + 1; j < n; j++ {
				lu[i*n+j] -= tmp * lu[k*n+j]
			}
		}
	}
}

func swapRows(i1, i2, n int, vals []float64) {
	r1, r2 := vals[i1*n:(i1+1)*n], vals[i2*n:(i2+1)*n]
	for j := range r1 {
		r1[j], r2[j] = r2[j], r1[j]
	}
}

// Determinant returns the determinant of the decomposed matrix.
func (luf *LUFactors) Determinant() float64 {
	if luf.singular {
		return 0
	}
	n := luf.lu.Width
	d := luf.d
	for i := 0; i < n; i++ {
		d *= luf.lu.Vals[i*n+i]
	}
	return d
}
