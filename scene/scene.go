/*package scene ties a coordinate system, its grid Cache, and the spatial
index over that grid together behind a single Controller.

Apply requests come from the UI. The Controller rebuilds what the request
changes and publishes an immutable Snapshot, which renderers and pickers read
without locking. A failed request leaves the last good Snapshot in place.
*/
package scene

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/phil-mansfield/curvgrid/coords"
	"github.com/phil-mansfield/curvgrid/grid"
	"github.com/phil-mansfield/curvgrid/spatial"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configure a Controller.
type Options struct {
	// StepRadius and MaxLength are used for ray picking.
	StepRadius, MaxLength float64
	// Thickness and HalfWidth are passed to the grid Cache.
	Thickness, HalfWidth float64
	// Allocator creates edge buffers. HostAllocator is used if it is nil.
	Allocator grid.Allocator
}

// DefaultOptions returns the Options used by interactive sessions.
func DefaultOptions() Options {
	return Options{
		StepRadius: 0.45,
		MaxLength:  200,
		Thickness:  grid.DefaultThickness,
		HalfWidth:  coords.DefaultHalfWidth,
	}
}

// Request asks the Controller to show a grid. Counter is incremented by the
// UI every time the user applies their settings.
type Request struct {
	Counter   uint64
	Equations [3]string
	Grid      grid.Config
}

// Snapshot is an immutable view of the scene after a successful Apply. The
// edge buffers in Data stay live until two more Snapshots have been
// published, so a reader holding a Snapshot may keep drawing from it while
// the next one replaces it.
type Snapshot struct {
	Counter   uint64
	Equations [3]string
	System    *coords.System
	Config    grid.Config
	Data      grid.RenderData
	Index     *spatial.Index
	// Generation is the Cache generation Data was taken from.
	Generation uint64
}

// Controller owns the coordinate system and grid Cache. Apply may be called
// from any goroutine, but calls are serialized. Snapshot, Pick, and Nearest
// never block on Apply.
type Controller struct {
	log  logrus.FieldLogger
	opts Options

	mu          sync.Mutex
	sys         *coords.System
	cache       *grid.Cache
	lastCounter uint64
	handled     bool
	// retired holds the edges evicted by the last publication.
	retired []*grid.Edge

	snap atomic.Pointer[Snapshot]
}

// NewController creates a Controller with no scene. If log is nil, log
// messages are discarded.
func NewController(opts Options, log logrus.FieldLogger) *Controller {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	if opts.Allocator == nil {
		opts.Allocator = grid.HostAllocator{}
	}
	return &Controller{log: log, opts: opts}
}

// Apply handles req. Requests with the same Counter as the last handled
// request are ignored. The coordinate system is only rebuilt if the
// equations changed, and only new grid segments are built. changed is true
// if a new Snapshot was published.
func (c *Controller) Apply(req Request) (changed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handled && req.Counter == c.lastCounter {
		return false, nil
	}
	c.handled, c.lastCounter = true, req.Counter

	log := c.log.WithField("counter", req.Counter)
	changed, err = c.apply(req, log)
	if err != nil {
		log.WithError(err).Error("Could not apply grid settings; keeping the previous grid.")
	}
	return changed, err
}

func (c *Controller) apply(req Request, log logrus.FieldLogger) (bool, error) {
	for i, field := range []string{"X", "Y", "Z"} {
		if err := ValidateEquation(field, req.Equations[i]); err != nil {
			return false, err
		}
	}
	if err := ValidateGrid(req.Grid); err != nil {
		return false, err
	}

	sys := c.sys
	if sys == nil || !sys.IsEquivalent(req.Equations) {
		var err error
		if sys, err = coords.Parse(req.Equations); err != nil {
			return false, err
		}
		log.WithField("system", sys).Info("New coordinate system.")
	}

	if c.cache == nil {
		c.cache = grid.NewCache(sys,
			grid.WithLogger(c.log),
			grid.WithAllocator(c.opts.Allocator),
			grid.WithThickness(c.opts.Thickness),
			grid.WithHalfWidth(c.opts.HalfWidth),
		)
	}

	var (
		p   *grid.Pending
		err error
	)
	if sys != c.sys {
		p, err = c.cache.StageCoordinates(sys, req.Grid)
	} else {
		p, err = c.cache.Stage(req.Grid)
	}
	if err != nil {
		return false, err
	}

	old := c.snap.Load()
	if !p.Changed() && old != nil {
		p.Commit()
		if old.Counter != req.Counter || old.Equations != req.Equations {
			next := *old
			next.Counter, next.Equations = req.Counter, req.Equations
			c.snap.Store(&next)
		}
		return false, nil
	}

	// The index is built before anything is committed, so a failure here
	// leaves the Cache and the published Snapshot as they were.
	idx, err := spatial.Build(p.Data(), sys)
	if err != nil {
		p.Discard()
		return false, err
	}

	evicted := p.Commit()
	c.sys = sys
	c.snap.Store(&Snapshot{
		Counter:    req.Counter,
		Equations:  req.Equations,
		System:     sys,
		Config:     c.cache.Config(),
		Data:       c.cache.Data(),
		Index:      idx,
		Generation: c.cache.Generation(),
	})

	// Edges evicted by this update may still be read through the Snapshot
	// which was just replaced, so they are held until the next publication.
	c.cache.Release(c.retired)
	c.retired = evicted

	log.WithFields(logrus.Fields{
		"segments": c.cache.Data().Len(),
		"points":   idx.Len(),
		"evicted":  len(evicted),
	}).Debug("Published snapshot.")
	return true, nil
}

// Snapshot returns the latest published Snapshot, or nil if no request has
// succeeded yet.
func (c *Controller) Snapshot() *Snapshot { return c.snap.Load() }

// Pick casts a ray into the current scene and returns the first grid point
// it passes near.
func (c *Controller) Pick(origin, dir r3.Vec) (r3.Vec, bool) {
	snap := c.snap.Load()
	if snap == nil {
		return r3.Vec{}, false
	}
	return snap.Index.RayCast(origin, dir, c.opts.StepRadius, c.opts.MaxLength)
}

// Nearest returns the grid point in the current scene closest to p.
func (c *Controller) Nearest(p r3.Vec) (r3.Vec, bool) {
	snap := c.snap.Load()
	if snap == nil {
		return r3.Vec{}, false
	}
	return snap.Index.Nearest(p)
}
