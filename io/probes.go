package io

import (
	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"
)

// Probe is a ray used to query a grid. Nearest-point queries only use
// Origin.
type Probe struct {
	Origin, Dir r3.Vec
}

// ReadProbes reads a whitespace-separated table of probes. Each row is
// ox oy oz dx dy dz.
func ReadProbes(fname string) ([]Probe, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2, 3, 4, 5}, nil)
	if err != nil {
		return nil, err
	}

	ox, oy, oz := cols[0], cols[1], cols[2]
	dx, dy, dz := cols[3], cols[4], cols[5]

	probes := make([]Probe, len(ox))
	for i := range probes {
		probes[i] = Probe{
			Origin: r3.Vec{X: ox[i], Y: oy[i], Z: oz[i]},
			Dir:    r3.Vec{X: dx[i], Y: dy[i], Z: dz[i]},
		}
	}
	return probes, nil
}
