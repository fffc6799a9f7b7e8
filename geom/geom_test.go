package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func vecEpsEq(v1, v2 r3.Vec, eps float64) bool {
	return math.Abs(v1.X-v2.X) <= eps &&
		math.Abs(v1.Y-v2.Y) <= eps &&
		math.Abs(v1.Z-v2.Z) <= eps
}

func TestRotationBetween(t *testing.T) {
	ex := r3.Vec{X: 1}
	table := []r3.Vec{
		{X: 1},
		{X: -1},
		{Y: 1},
		{Z: -1},
		r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1}),
		r3.Unit(r3.Vec{X: -1, Y: 1e-14}),
	}

	for i, to := range table {
		got := RotationBetween(ex, to).Rotate(ex)
		assert.True(t, vecEpsEq(got, to, 1e-9), "%d) got %v, want %v", i+1, got, to)
	}
}

func TestPerpendicular(t *testing.T) {
	for _, v := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 2, Z: 3}} {
		p := Perpendicular(v)
		assert.InDelta(t, 0, r3.Dot(p, v), 1e-12)
		assert.InDelta(t, 1, r3.Norm(p), 1e-12)
	}
}

func TestPlacement(t *testing.T) {
	table := []struct {
		p0, p1 r3.Vec
		length float64
	}{
		{r3.Vec{}, r3.Vec{X: 1}, 1},
		{r3.Vec{X: 2, Y: 3, Z: 4}, r3.Vec{X: 2, Y: 3, Z: 5}, 1},
		{r3.Vec{X: 1, Y: 1}, r3.Vec{X: 1, Y: 1.5}, 0.5},
		{r3.Vec{X: 3}, r3.Vec{X: 1}, 2},
	}

	for i, test := range table {
		tr, length, ok := Placement(test.p0, test.p1, 0.02)
		assert.True(t, ok, "%d)", i+1)
		assert.InDelta(t, test.length, length, 1e-12, "%d)", i+1)

		start := tr.Apply(r3.Vec{})
		end := tr.Apply(r3.Vec{X: 1})
		assert.True(t, vecEpsEq(start, test.p0, 1e-9), "%d) start %v", i+1, start)
		assert.True(t, vecEpsEq(end, test.p1, 1e-9), "%d) end %v", i+1, end)

		// The cross section is scaled down to the edge thickness.
		side := r3.Sub(tr.Apply(r3.Vec{Y: 1}), start)
		assert.InDelta(t, 0.02, r3.Norm(side), 1e-12, "%d)", i+1)
	}

	_, _, ok := Placement(r3.Vec{X: 1}, r3.Vec{X: 1}, 0.02)
	assert.False(t, ok)
}

func TestTransformMul(t *testing.T) {
	a := Translation(r3.Vec{X: 1, Y: 2, Z: 3})
	b := Scaling(r3.Vec{X: 2, Y: 2, Z: 2})
	ab := a.Mul(b)
	assert.Equal(t, r3.Vec{X: 3, Y: 4, Z: 5}, ab.Apply(r3.Vec{X: 1, Y: 1, Z: 1}))
	assert.Equal(t, ab, Identity().Mul(ab))
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, ab.Apply(r3.Vec{}))
	assert.NotEqual(t, ab, b.Mul(a))
}

func TestAxis(t *testing.T) {
	assert.Nil(t, Axis{0, 7, 0}.LinePositions())
	assert.Equal(t, []float64{3}, Axis{3, 7, 1}.LinePositions())
	assert.Equal(t, []float64{0, 3.5, 7}, Axis{0, 7, 3}.LinePositions())

	cells := Axis{0, 7, 2}.Cells()
	assert.Len(t, cells, 7)
	assert.Equal(t, Cell{6, 7}, cells[6])

	cells = Axis{-1.6, 1, 2}.Cells()
	assert.Len(t, cells, 3)
	assert.InDelta(t, 0.6, cells[2].Len(), 1e-12)

	assert.Nil(t, Axis{1, 1, 2}.Cells())
	assert.Nil(t, Axis{2, 1, 2}.Cells())
}

func BenchmarkPlacement(b *testing.B) {
	p0, p1 := r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1, Y: 3, Z: 3}
	for i := 0; i < b.N; i++ {
		Placement(p0, p1, 0.02)
	}
}
