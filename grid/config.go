/*package grid builds and caches the tessellated line segments of a curved
grid.

A grid is described by a Config, which bounds each parametric axis and says
how many grid lines cross it. Every unit step of every grid line is a
segment, identified by a Key. Each segment is assigned a vertex count from
the curvature of the coordinate system around it, and segments sharing a
vertex count share one reference Edge. The Cache keeps all of this up to date
as the Config changes, rebuilding only the segments which were added.
*/
package grid

import (
	"fmt"

	"github.com/phil-mansfield/curvgrid/geom"
)

// Config bounds the three parametric axes (u, v, w) of a grid and sets the
// number of grid lines crossing each of them.
type Config struct {
	UMin, UMax float64
	NbU        int
	VMin, VMax float64
	NbV        int
	WMin, WMax float64
	NbW        int
}

// DefaultConfig returns a 7 x 7 x 7 grid with two lines crossing each axis.
func DefaultConfig() Config {
	return Config{
		UMin: 0, UMax: 7, NbU: 2,
		VMin: 0, VMax: 7, NbV: 2,
		WMin: 0, WMax: 7, NbW: 2,
	}
}

// Equal returns true if all nine fields of c and o are identical.
func (c Config) Equal(o Config) bool { return c == o }

// Grid returns the axes of c.
func (c Config) Grid() geom.Grid {
	return geom.Grid{
		{Min: c.UMin, Max: c.UMax, Lines: c.NbU},
		{Min: c.VMin, Max: c.VMax, Lines: c.NbV},
		{Min: c.WMin, Max: c.WMax, Lines: c.NbW},
	}
}

func (c Config) String() string {
	return fmt.Sprintf("u [%g, %g] x%d, v [%g, %g] x%d, w [%g, %g] x%d",
		c.UMin, c.UMax, c.NbU, c.VMin, c.VMax, c.NbV, c.WMin, c.WMax, c.NbW)
}
