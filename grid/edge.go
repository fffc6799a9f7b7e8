package grid

import (
	"fmt"
	"sync/atomic"

	"github.com/phil-mansfield/curvgrid/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Buffer is a backend handle holding the vertex and index data of an Edge.
type Buffer interface {
	Release() error
}

// Allocator creates Buffers. A rendering backend supplies an Allocator which
// uploads edges to the GPU.
type Allocator interface {
	Alloc(vertices []float32, indices []uint32) (Buffer, error)
}

// AllocError is returned when an Allocator fails to create the buffer for a
// bucket.
type AllocError struct {
	Bucket int
	Err    error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocating edge buffer for %d vertices: %s", e.Bucket, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

// HostAllocator keeps edge data in host memory.
type HostAllocator struct{}

// HostBuffer is the Buffer created by HostAllocator.
type HostBuffer struct {
	Vertices []float32
	Indices  []uint32
}

func (HostAllocator) Alloc(vertices []float32, indices []uint32) (Buffer, error) {
	buf := &HostBuffer{
		Vertices: make([]float32, len(vertices)),
		Indices:  make([]uint32, len(indices)),
	}
	copy(buf.Vertices, vertices)
	copy(buf.Indices, indices)
	return buf, nil
}

func (b *HostBuffer) Release() error {
	b.Vertices, b.Indices = nil, nil
	return nil
}

// Edge is the reference geometry shared by all segments with the same
// vertex count: a straight polyline from (0, 0, 0) to (1, 0, 0).
type Edge struct {
	n        int
	vertices []r3.Vec
	indices  [][2]uint32
	buf      Buffer
	released atomic.Bool
}

// Instance is one placement of an Edge.
type Instance struct {
	Transform geom.Transform
	Dir       Dir
}

// RenderData maps every Edge to its placements. RenderData returned by a
// Cache must not be modified.
type RenderData map[*Edge][]Instance

// Len returns the total number of placements in d.
func (d RenderData) Len() int {
	n := 0
	for _, insts := range d {
		n += len(insts)
	}
	return n
}

func newEdge(n int, alloc Allocator) (*Edge, error) {
	if n < MinDensity {
		panic(fmt.Sprintf("Edge with %d vertices.", n))
	}

	e := &Edge{
		n:        n,
		vertices: make([]r3.Vec, n),
		indices:  make([][2]uint32, n-1),
	}
	for i := range e.vertices {
		e.vertices[i] = r3.Vec{X: float64(i) / float64(n-1)}
	}
	for i := range e.indices {
		e.indices[i] = [2]uint32{uint32(i), uint32(i + 1)}
	}

	vs := make([]float32, 0, 3*n)
	for _, v := range e.vertices {
		vs = append(vs, float32(v.X), float32(v.Y), float32(v.Z))
	}
	is := make([]uint32, 0, 2*len(e.indices))
	for _, idx := range e.indices {
		is = append(is, idx[0], idx[1])
	}

	var err error
	if e.buf, err = alloc.Alloc(vs, is); err != nil {
		return nil, err
	}
	return e, nil
}

// NbVertices returns the number of vertices in e.
func (e *Edge) NbVertices() int { return e.n }

// Vertices returns the vertices of e, evenly spaced from (0, 0, 0) to
// (1, 0, 0).
func (e *Edge) Vertices() []r3.Vec { return e.vertices }

// Indices returns the vertex pairs of the lines making up e.
func (e *Edge) Indices() [][2]uint32 { return e.indices }

// Buffer returns the backend buffer holding e. The handle itself never
// changes, so it is safe to call from any goroutine, but the buffer behind it
// is only usable until Released reports true.
func (e *Edge) Buffer() Buffer { return e.buf }

// Released returns true once the buffer of e has been released.
func (e *Edge) Released() bool { return e.released.Load() }

func (e *Edge) release() error {
	if e.released.Swap(true) || e.buf == nil {
		return nil
	}
	return e.buf.Release()
}
