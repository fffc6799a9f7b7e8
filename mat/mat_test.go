package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gmat "gonum.org/v1/gonum/mat"
)

func TestAgainstGonum(t *testing.T) {
	table := [][]float64{
		{1, 3, 5, 2, 4, 7, 1, 1, 0},
		{4, 0, 0, 0, 2, 0, 0, 0, 0.5},
		{0, 2, 1, 1, 0, 3, 2, 1, 0},
		{1, 2, 0, 2, 13, -3, 0, -3, 17},
	}

	for i, vals := range table {
		m := NewMatrix(append([]float64{}, vals...), 3, 3)
		d := gmat.NewDense(3, 3, append([]float64{}, vals...))

		assert.InDelta(t, gmat.Det(d), m.Determinant(), 1e-9, "%d) det", i+1)
		assert.InDelta(t, gmat.Det(d), m.LU().Determinant(), 1e-9, "%d) LU det", i+1)

		// m^T m is the shape of every metric tensor.
		g := m.Transpose().Mult(m)
		var gg gmat.Dense
		gg.Mul(d.T(), d)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				assert.InDelta(t, gg.At(r, c), g.At(r, c), 1e-9,
					"%d) m^T m[%d][%d]", i+1, r, c)
			}
		}
	}
}

func TestSingular(t *testing.T) {
	m := NewMatrix([]float64{1, 2, 3, 2, 4, 6, 0, 1, 1}, 3, 3)
	assert.Equal(t, 0.0, m.Determinant())

	zero := NewMatrix(make([]float64, 4), 2, 2)
	assert.Equal(t, 0.0, zero.Determinant())
}

func TestMultAt(t *testing.T) {
	a := NewMatrix([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	b := NewMatrix([]float64{1, 0, 0, 1, 1, 1}, 2, 3)
	out := NewMatrix([]float64{9, 9, 9, 9}, 2, 2)
	a.MultAt(b, out)
	assert.Equal(t, []float64{4, 5, 10, 11}, out.Vals)

	assert.Panics(t, func() { a.Mult(a) })
	assert.Panics(t, func() { a.MultAt(b, NewMatrix(make([]float64, 9), 3, 3)) })
}

func TestTranspose(t *testing.T) {
	m := NewMatrix([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	tr := m.Transpose()
	assert.Equal(t, 2, tr.Width)
	assert.Equal(t, 3, tr.Height)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Vals)
}
