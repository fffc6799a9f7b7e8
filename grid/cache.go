package grid

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// Cache holds the built segments of a grid and the RenderData made from
// them. Updates only build segments which were not already present.
//
// A Cache is owned by a single goroutine. The RenderData it returns is never
// modified after it is returned, so it may be handed to other goroutines.
type Cache struct {
	log       logrus.FieldLogger
	alloc     Allocator
	thickness float64
	halfWidth float64

	sys     Coordinates
	cfg     Config
	applied bool

	nKeys    int
	segments map[Key]*Segment
	edges    map[int]*Edge
	data     RenderData

	generation     uint64
	added, removed int
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the logger used by the Cache.
func WithLogger(log logrus.FieldLogger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// WithAllocator sets the Allocator used to create edge buffers.
func WithAllocator(alloc Allocator) CacheOption {
	return func(c *Cache) { c.alloc = alloc }
}

// WithThickness sets the cross-section scale of placed edges.
func WithThickness(t float64) CacheOption {
	return func(c *Cache) { c.thickness = t }
}

// WithHalfWidth sets the half-width of the window curvature is integrated
// over around each segment's midpoint.
func WithHalfWidth(hw float64) CacheOption {
	return func(c *Cache) { c.halfWidth = hw }
}

// NewCache returns an empty Cache for the coordinate system sys. Nothing is
// built until the first call to Update.
func NewCache(sys Coordinates, opts ...CacheOption) *Cache {
	discard := logrus.New()
	discard.Out = io.Discard

	c := &Cache{
		log:       discard,
		alloc:     HostAllocator{},
		thickness: DefaultThickness,
		halfWidth: 1.0,
		sys:       sys,
		segments:  map[Key]*Segment{},
		edges:     map[int]*Edge{},
		data:      RenderData{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update brings the cache in line with cfg and releases the edges it no
// longer uses. If cfg is identical to the last successfully applied Config,
// nothing happens and changed is false.
//
// Only segments whose keys were not present before are built. If any build
// or allocation fails, the Cache is left exactly as it was before the call.
func (c *Cache) Update(cfg Config) (changed bool, err error) {
	p, err := c.Stage(cfg)
	if err != nil {
		return false, err
	} else if !p.Changed() {
		return false, nil
	}
	c.Release(p.Commit())
	return true, nil
}

// SetCoordinates switches the Cache to a new coordinate system and applies
// cfg. Every segment is rebuilt, but edges are reused where their vertex
// counts survive. On failure the Cache keeps its old coordinate system and
// state.
func (c *Cache) SetCoordinates(sys Coordinates, cfg Config) error {
	p, err := c.StageCoordinates(sys, cfg)
	if err != nil {
		return err
	}
	c.Release(p.Commit())
	return nil
}

// Pending is an update which has been built but not yet applied to its
// Cache. The Cache is unchanged until Commit is called, and at most one
// Pending may be committed per Cache state.
type Pending struct {
	c       *Cache
	base    uint64
	changed bool
	done    bool

	sys   Coordinates
	cfg   Config
	nKeys int

	segments       map[Key]*Segment
	edges          map[int]*Edge
	data           RenderData
	added, removed int

	created, evicted []*Edge
}

// Stage builds the update which would bring the Cache in line with cfg
// without applying it. See Update.
func (c *Cache) Stage(cfg Config) (*Pending, error) {
	if c.applied && c.cfg.Equal(cfg) {
		return &Pending{c: c, base: c.generation}, nil
	}
	return c.stage(c.sys, cfg, true)
}

// StageCoordinates builds the update which would switch the Cache to sys
// and cfg without applying it. See SetCoordinates.
func (c *Cache) StageCoordinates(sys Coordinates, cfg Config) (*Pending, error) {
	return c.stage(sys, cfg, false)
}

func (c *Cache) stage(sys Coordinates, cfg Config, reuse bool) (*Pending, error) {
	lat := NewLattice(cfg)
	keys := lat.Keys()

	segs := make(map[Key]*Segment, len(keys))
	order := make([]Key, 0, len(keys))
	added := 0
	for _, k := range keys {
		if _, ok := segs[k]; ok {
			continue
		}
		p0, p1, _ := lat.Endpoints(k)
		if s, ok := c.segments[k]; ok && reuse && s.Start == p0 && s.End == p1 {
			segs[k] = s
			order = append(order, k)
			continue
		}

		s, ok, err := buildSegment(sys, k, p0, p1, c.thickness, c.halfWidth)
		if err != nil {
			c.log.WithError(err).WithField("config", cfg).Debug("Segment build failed.")
			return nil, err
		} else if !ok {
			continue
		}
		segs[k] = s
		order = append(order, k)
		added++
	}

	removed := 0
	for k := range c.segments {
		if s, ok := segs[k]; !ok || s != c.segments[k] {
			removed++
		}
	}

	byBucket := map[int][]Instance{}
	for _, k := range order {
		s := segs[k]
		byBucket[s.Bucket] = append(byBucket[s.Bucket], Instance{s.Transform, s.Dir})
	}
	buckets := make([]int, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	edges := make(map[int]*Edge, len(buckets))
	created := []*Edge{}
	for _, b := range buckets {
		if e, ok := c.edges[b]; ok {
			edges[b] = e
			continue
		}
		e, err := newEdge(b, c.alloc)
		if err != nil {
			c.Release(created)
			return nil, &AllocError{Bucket: b, Err: err}
		}
		edges[b] = e
		created = append(created, e)
	}

	data := make(RenderData, len(edges))
	for b, e := range edges {
		data[e] = byBucket[b]
	}

	evicted := []*Edge{}
	for b, e := range c.edges {
		if _, ok := edges[b]; !ok {
			evicted = append(evicted, e)
		}
	}

	return &Pending{
		c: c, base: c.generation, changed: true,
		sys: sys, cfg: cfg, nKeys: len(keys),
		segments: segs, edges: edges, data: data,
		added: added, removed: removed,
		created: created, evicted: evicted,
	}, nil
}

// Changed returns false if committing p would leave its Cache as it is.
func (p *Pending) Changed() bool { return p.changed }

// Data returns the RenderData the Cache will hold once p is committed. It
// must not be modified.
func (p *Pending) Data() RenderData {
	if !p.changed {
		return p.c.data
	}
	return p.data
}

// Commit applies p to its Cache and returns the edges the Cache no longer
// uses. Their buffers are still live: the caller releases them with
// Cache.Release once nothing reads them. Commit panics if the Cache has
// changed since p was staged.
func (p *Pending) Commit() []*Edge {
	c := p.c
	if p.done {
		panic("grid: Pending committed after Commit or Discard.")
	} else if c.generation != p.base {
		panic("grid: Pending committed to a Cache which changed after staging.")
	}
	p.done = true
	if !p.changed {
		return nil
	}

	c.sys, c.cfg, c.applied = p.sys, p.cfg, true
	c.nKeys = p.nKeys
	c.segments, c.edges, c.data = p.segments, p.edges, p.data
	c.added, c.removed = p.added, p.removed
	c.generation++

	c.log.WithFields(logrus.Fields{
		"generation": c.generation,
		"keys":       p.nKeys,
		"added":      p.added,
		"removed":    p.removed,
		"buckets":    len(p.edges),
		"evicted":    len(p.evicted),
	}).Debug("Grid updated.")

	return p.evicted
}

// Discard drops p, releasing the edges which were created for it. It does
// nothing if p has already been committed or discarded.
func (p *Pending) Discard() {
	if p.done {
		return
	}
	p.done = true
	p.c.Release(p.created)
}

// Release releases the buffers of edges. Failures are logged, since there is
// nothing left for the caller to do with an edge it is throwing away.
func (c *Cache) Release(edges []*Edge) {
	for _, e := range edges {
		if err := e.release(); err != nil {
			c.log.WithError(err).WithField("bucket", e.n).Warn("Could not release edge buffer.")
		}
	}
}

// Data returns the current RenderData. It must not be modified.
func (c *Cache) Data() RenderData { return c.data }

// Config returns the last successfully applied Config.
func (c *Cache) Config() Config { return c.cfg }

// Segment returns the segment for k, if it has been built.
func (c *Cache) Segment(k Key) (*Segment, bool) {
	s, ok := c.segments[k]
	return s, ok
}

// Generation returns the number of successful updates which changed the
// Cache.
func (c *Cache) Generation() uint64 { return c.generation }

// Stats summarizes the state of a Cache.
type Stats struct {
	Keys, Segments int
	// Buckets maps vertex counts to the number of segments using them.
	Buckets map[int]int
	// Added and Removed count the segments built and dropped by the last
	// update.
	Added, Removed int
	Generation     uint64
}

// Stats returns a summary of the Cache.
func (c *Cache) Stats() Stats {
	st := Stats{
		Keys:       c.nKeys,
		Segments:   len(c.segments),
		Buckets:    map[int]int{},
		Added:      c.added,
		Removed:    c.removed,
		Generation: c.generation,
	}
	for e, insts := range c.data {
		st.Buckets[e.NbVertices()] = len(insts)
	}
	return st
}
