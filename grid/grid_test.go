package grid

import (
	"errors"
	"reflect"
	"testing"

	"github.com/phil-mansfield/curvgrid/coords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustCoords(t testing.TB, eqs [3]string) *coords.System {
	s, err := coords.Parse(eqs)
	require.NoError(t, err)
	return s
}

func identity(t testing.TB) *coords.System {
	return mustCoords(t, [3]string{"x", "y", "z"})
}

func spherical(t testing.TB) *coords.System {
	return mustCoords(t, [3]string{"x*cos(y) * sin(z)", "x*sin(y) * sin(z)", "x * cos(z)"})
}

// countingCoords counts curvature evaluations, i.e. segment builds.
type countingCoords struct {
	Coordinates
	n int
}

func (c *countingCoords) Curvature(p r3.Vec, hw float64) ([3]float64, error) {
	c.n++
	return c.Coordinates.Curvature(p, hw)
}

type testAllocator struct {
	fail     bool
	allocs   int
	released int
}

type testBuffer struct{ a *testAllocator }

func (b testBuffer) Release() error {
	b.a.released++
	return nil
}

func (a *testAllocator) Alloc(vs []float32, is []uint32) (Buffer, error) {
	if a.fail {
		return nil, errors.New("out of buffer memory")
	}
	a.allocs++
	return testBuffer{a}, nil
}

func TestKeys(t *testing.T) {
	unit := Config{0, 1, 1, 0, 1, 1, 0, 1, 1}
	table := []struct {
		cfg Config
		n   int
	}{
		{DefaultConfig(), 7*2*2 + 7*2*2 + 7*2*2},
		{unit, 3},
		{Config{-1.6, 15, 5, 0, 7, 5, 0, 7, 5}, 17*5*5 + 7*5*5 + 7*5*5},
		{Config{0, 3, 0, 0, 2, 4, 0, 1, 1}, 3*4*1 + 2*1*0 + 1*0*4},
		// Coincident u lines collapse into one.
		{Config{0, 0, 3, 0, 2, 3, 0, 1, 3}, 0 + 2*3*1 + 1*1*3},
	}

	for i, test := range table {
		keys := Keys(test.cfg)
		assert.Len(t, keys, test.n, "%d) %s", i+1, test.cfg)

		set := map[Key]bool{}
		for _, k := range keys {
			set[k] = true
		}
		assert.Len(t, set, test.n, "%d) duplicate keys", i+1)
	}

	lat := NewLattice(unit)
	keys := lat.Keys()
	assert.Equal(t, []Dir{U, V, W}, []Dir{keys[0].Dir, keys[1].Dir, keys[2].Dir})
	for _, k := range keys {
		p0, p1, ok := lat.Endpoints(k)
		require.True(t, ok)
		assert.Equal(t, 1.0, r3.Norm(r3.Sub(p1, p0)))
	}
}

func TestKeysClipLastCell(t *testing.T) {
	lat := NewLattice(Config{0, 2.5, 1, 0, 0, 1, 0, 0, 1})
	keys := lat.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Dir: U, Cell: 2}, keys[2])
	p0, p1, ok := lat.Endpoints(keys[2])
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 2}, p0)
	assert.Equal(t, r3.Vec{X: 2.5}, p1)
}

func TestLatticeEndpoints(t *testing.T) {
	lat := NewLattice(Config{-1.6, 15, 5, 0.1, 7, 5, 0, 7.3, 3})

	// Positions come straight from the Config, with no rounding.
	p0, p1, ok := lat.Endpoints(Key{Dir: U, Cell: 0, Lines: [2]int{0, 2}})
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: -1.6, Y: 0.1, Z: 7.3}, p0)
	assert.Equal(t, r3.Vec{X: p0.X + 1, Y: 0.1, Z: 7.3}, p1)

	p0, p1, ok = lat.Endpoints(Key{Dir: W, Cell: 7, Lines: [2]int{4, 4}})
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 15, Y: 7, Z: 7}, p0)
	assert.Equal(t, r3.Vec{X: 15, Y: 7, Z: 7.3}, p1)

	for _, k := range []Key{
		{Dir: U, Cell: 17},
		{Dir: U, Cell: -1},
		{Dir: V, Lines: [2]int{3, 0}},
		{Dir: W, Lines: [2]int{0, 5}},
		{Dir: 3},
	} {
		_, _, ok := lat.Endpoints(k)
		assert.False(t, ok, "%+v", k)
	}
}

func TestDensity(t *testing.T) {
	assert.Equal(t, 2, Density(0))
	assert.Equal(t, 4, Density(0.5))
	assert.Equal(t, 6, Density(1))
	assert.Equal(t, 2, Density(-1))
	assert.Equal(t, MaxDensity, Density(1e300))

	prev := Density(0)
	for c := 0.0; c < 100; c += 0.01 {
		d := Density(c)
		assert.GreaterOrEqual(t, d, prev, "Density(%g)", c)
		prev = d
	}
}

func TestEdge(t *testing.T) {
	e, err := newEdge(4, HostAllocator{})
	require.NoError(t, err)
	assert.Equal(t, 4, e.NbVertices())
	assert.Equal(t, r3.Vec{}, e.Vertices()[0])
	assert.Equal(t, r3.Vec{X: 1}, e.Vertices()[3])
	assert.Equal(t, [][2]uint32{{0, 1}, {1, 2}, {2, 3}}, e.Indices())

	buf := e.Buffer().(*HostBuffer)
	assert.Len(t, buf.Vertices, 12)
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 3}, buf.Indices)
	assert.False(t, e.Released())
	require.NoError(t, e.release())
	assert.True(t, e.Released())
	assert.Same(t, buf, e.Buffer())

	alloc := &testAllocator{}
	e, err = newEdge(3, alloc)
	require.NoError(t, err)
	require.NoError(t, e.release())
	require.NoError(t, e.release())
	assert.Equal(t, 1, alloc.released)
}

func TestEndToEnd(t *testing.T) {
	c := NewCache(identity(t))
	changed, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, changed)

	data := c.Data()
	require.Len(t, data, 1)
	for e, insts := range data {
		assert.Equal(t, 2, e.NbVertices())
		assert.Len(t, insts, 84)
	}
	assert.Equal(t, 84, data.Len())

	st := c.Stats()
	assert.Equal(t, 84, st.Keys)
	assert.Equal(t, 84, st.Segments)
	assert.Equal(t, map[int]int{2: 84}, st.Buckets)
	assert.Equal(t, uint64(1), st.Generation)
}

func TestIdempotent(t *testing.T) {
	sys := &countingCoords{Coordinates: spherical(t)}
	c := NewCache(sys)
	_, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	builds, data := sys.n, c.Data()

	changed, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, builds, sys.n)
	assert.Equal(t, uint64(1), c.Generation())
	assert.Equal(t, reflect.ValueOf(data).Pointer(), reflect.ValueOf(c.Data()).Pointer())
}

func TestIncremental(t *testing.T) {
	sys := &countingCoords{Coordinates: spherical(t)}
	c := NewCache(sys)
	cfg := DefaultConfig()
	_, err := c.Update(cfg)
	require.NoError(t, err)

	before := map[Key]*Segment{}
	for _, k := range Keys(cfg) {
		s, ok := c.Segment(k)
		require.True(t, ok)
		before[k] = s
	}

	sys.n = 0
	cfg.WMax = 5
	changed, err := c.Update(cfg)
	require.NoError(t, err)
	assert.True(t, changed)

	survivors := 0
	for _, k := range Keys(cfg) {
		s, ok := c.Segment(k)
		require.True(t, ok)
		if old, ok := before[k]; ok {
			assert.True(t, old == s, "segment %v was rebuilt", k)
			survivors++
		}
	}

	// U and V segments on the w = 0 lines and the first five W cells.
	assert.Equal(t, 14+14+20, survivors)
	assert.Equal(t, 28, sys.n)
	st := c.Stats()
	assert.Equal(t, 28, st.Added)
	assert.Equal(t, 36, st.Removed)
	assert.Equal(t, 76, st.Segments)
}

func TestBucketsMatchSegments(t *testing.T) {
	c := NewCache(spherical(t))
	cfg := Config{-1.6, 15, 5, 0, 7, 5, 0, 7, 5}
	_, err := c.Update(cfg)
	require.NoError(t, err)

	st := c.Stats()
	assert.Greater(t, len(st.Buckets), 1)
	total := 0
	for n, count := range st.Buckets {
		assert.GreaterOrEqual(t, n, MinDensity)
		total += count
	}
	assert.Equal(t, st.Segments, total)

	for _, k := range Keys(cfg) {
		s, ok := c.Segment(k)
		require.True(t, ok)
		assert.Equal(t, Density(s.Curvature), s.Bucket)
		assert.Equal(t, k.Dir, s.Dir)
	}
}

func TestAllocFailure(t *testing.T) {
	alloc := &testAllocator{fail: true}
	c := NewCache(identity(t), WithAllocator(alloc))

	_, err := c.Update(DefaultConfig())
	var allocErr *AllocError
	require.True(t, errors.As(err, &allocErr))
	assert.Equal(t, 2, allocErr.Bucket)
	assert.Empty(t, c.Data())
	assert.Equal(t, uint64(0), c.Generation())

	alloc.fail = false
	changed, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, changed)
	data := c.Data()

	alloc.fail = true
	err = c.SetCoordinates(spherical(t), DefaultConfig())
	require.True(t, errors.As(err, &allocErr))
	assert.Equal(t, reflect.ValueOf(data).Pointer(), reflect.ValueOf(c.Data()).Pointer())
	assert.Equal(t, uint64(1), c.Generation())
	assert.Equal(t, 0, alloc.released)

	alloc.fail = false
	require.NoError(t, c.SetCoordinates(spherical(t), DefaultConfig()))
	assert.Greater(t, len(c.Data()), 1)
	assert.Equal(t, uint64(2), c.Generation())
}

func TestEvictedEdgesReleased(t *testing.T) {
	alloc := &testAllocator{}
	c := NewCache(spherical(t), WithAllocator(alloc))
	_, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	n := len(c.Data())

	require.NoError(t, c.SetCoordinates(identity(t), DefaultConfig()))
	assert.Len(t, c.Data(), 1)
	assert.Equal(t, alloc.allocs-1, alloc.released)
	assert.Equal(t, n, alloc.allocs)
}

func TestStageCommit(t *testing.T) {
	alloc := &testAllocator{}
	c := NewCache(spherical(t), WithAllocator(alloc))
	_, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	data := c.Data()
	n := len(data)

	p, err := c.StageCoordinates(identity(t), DefaultConfig())
	require.NoError(t, err)
	assert.True(t, p.Changed())
	assert.Len(t, p.Data(), 1)
	assert.Equal(t, reflect.ValueOf(data).Pointer(), reflect.ValueOf(c.Data()).Pointer())
	assert.Equal(t, uint64(1), c.Generation())

	evicted := p.Commit()
	assert.Len(t, evicted, n-1)
	assert.Equal(t, uint64(2), c.Generation())
	assert.Len(t, c.Data(), 1)
	assert.Equal(t, 0, alloc.released)
	for _, e := range evicted {
		assert.False(t, e.Released())
		_, ok := data[e]
		assert.True(t, ok)
	}

	c.Release(evicted)
	assert.Equal(t, n-1, alloc.released)
	assert.Panics(t, func() { p.Commit() })
}

func TestStageUnchanged(t *testing.T) {
	c := NewCache(identity(t))
	_, err := c.Update(DefaultConfig())
	require.NoError(t, err)

	p, err := c.Stage(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, p.Changed())
	assert.Equal(t, reflect.ValueOf(c.Data()).Pointer(), reflect.ValueOf(p.Data()).Pointer())
	assert.Empty(t, p.Commit())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestStageDiscard(t *testing.T) {
	alloc := &testAllocator{}
	c := NewCache(identity(t), WithAllocator(alloc))
	_, err := c.Update(DefaultConfig())
	require.NoError(t, err)
	data := c.Data()

	p, err := c.StageCoordinates(spherical(t), DefaultConfig())
	require.NoError(t, err)
	assert.Greater(t, alloc.allocs, 1)

	p.Discard()
	assert.Equal(t, alloc.allocs-1, alloc.released)
	assert.Equal(t, uint64(1), c.Generation())
	assert.Equal(t, reflect.ValueOf(data).Pointer(), reflect.ValueOf(c.Data()).Pointer())
	for e := range c.Data() {
		assert.False(t, e.Released())
	}

	p.Discard()
	assert.Equal(t, alloc.allocs-1, alloc.released)
	assert.Panics(t, func() { p.Commit() })
}

func TestStaleCommit(t *testing.T) {
	c := NewCache(identity(t))
	cfg := DefaultConfig()
	a, err := c.Stage(cfg)
	require.NoError(t, err)
	cfg.WMax = 5
	b, err := c.Stage(cfg)
	require.NoError(t, err)

	a.Commit()
	assert.Panics(t, func() { b.Commit() })
	assert.Equal(t, DefaultConfig(), c.Config())
}

func TestBuildError(t *testing.T) {
	c := NewCache(mustCoords(t, [3]string{"x", "sqrt(y)", "z"}))
	_, err := c.Update(Config{0, 3, 2, 0, 3, 2, 0, 3, 2})
	require.Error(t, err)

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	var curvErr *coords.CurvatureError
	assert.True(t, errors.As(err, &curvErr))
	assert.Empty(t, c.Data())
	assert.Equal(t, uint64(0), c.Generation())
}

func BenchmarkUpdate(b *testing.B) {
	sys := spherical(b)
	cfg := Config{-1.6, 15, 5, 0, 7, 5, 0, 7, 5}
	for i := 0; i < b.N; i++ {
		c := NewCache(sys)
		c.Update(cfg)
	}
}
