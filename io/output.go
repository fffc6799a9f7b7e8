package io

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/phil-mansfield/curvgrid/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

var end = binary.LittleEndian

// readChunk is the most points ReadPoints reads at once, so that a corrupt
// Count fails on a short read instead of a huge allocation.
const readChunk = 1 << 16

// PointsHeader starts every point file written by WritePoints. It is followed
// by Type.Count little-endian [3]float64 points.
type PointsHeader struct {
	Type TypeInfo
	Grid GridInfo
}

type TypeInfo struct {
	Endianness int64
	HeaderSize int64
	Count      int64
}

type GridInfo struct {
	Min, Max   Vector
	Lines      IntVector
	Generation int64
}

type Vector [3]float64
type IntVector [3]int64

func NewGridInfo(cfg grid.Config, generation uint64) GridInfo {
	return GridInfo{
		Min:        Vector{cfg.UMin, cfg.VMin, cfg.WMin},
		Max:        Vector{cfg.UMax, cfg.VMax, cfg.WMax},
		Lines:      IntVector{int64(cfg.NbU), int64(cfg.NbV), int64(cfg.NbW)},
		Generation: int64(generation),
	}
}

// Config returns the grid.Config that info was created from.
func (info *GridInfo) Config() grid.Config {
	return grid.Config{
		UMin: info.Min[0], UMax: info.Max[0], NbU: int(info.Lines[0]),
		VMin: info.Min[1], VMax: info.Max[1], NbV: int(info.Lines[1]),
		WMin: info.Min[2], WMax: info.Max[2], NbW: int(info.Lines[2]),
	}
}

// WritePoints writes the world-space samples of a grid to wr.
func WritePoints(wr io.Writer, info GridInfo, pts []r3.Vec) error {
	hd := PointsHeader{}
	hd.Type.Endianness = -1
	hd.Type.HeaderSize = int64(binary.Size(hd))
	hd.Type.Count = int64(len(pts))
	hd.Grid = info

	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}

	buf := make([][3]float64, len(pts))
	for i, p := range pts {
		buf[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return binary.Write(wr, end, buf)
}

// ReadPoints reads a file written by WritePoints.
func ReadPoints(rd io.Reader) (*PointsHeader, []r3.Vec, error) {
	hd := &PointsHeader{}
	if err := binary.Read(rd, end, hd); err != nil {
		return nil, nil, err
	}

	if hd.Type.Endianness != -1 {
		return nil, nil, fmt.Errorf(
			"Unrecognized endianness flag, %d.", hd.Type.Endianness,
		)
	} else if hd.Type.HeaderSize != int64(binary.Size(hd)) {
		return nil, nil, fmt.Errorf(
			"Header size is %d, but expected %d.",
			hd.Type.HeaderSize, binary.Size(hd),
		)
	} else if hd.Type.Count < 0 {
		return nil, nil, fmt.Errorf("Negative point count, %d.", hd.Type.Count)
	}

	n := hd.Type.Count
	if n > readChunk {
		n = readChunk
	}
	buf := make([][3]float64, n)
	pts := make([]r3.Vec, 0, n)
	for left := hd.Type.Count; left > 0; left -= int64(len(buf)) {
		if left < int64(len(buf)) {
			buf = buf[:left]
		}
		if err := binary.Read(rd, end, buf); err != nil {
			return nil, nil, fmt.Errorf(
				"Could not read point %d of %d: %w",
				len(pts), hd.Type.Count, err,
			)
		}
		for _, p := range buf {
			pts = append(pts, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		}
	}
	return hd, pts, nil
}
