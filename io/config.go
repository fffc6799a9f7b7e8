package io

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/phil-mansfield/curvgrid/grid"
	"github.com/phil-mansfield/curvgrid/scene"
	"gopkg.in/gcfg.v1"
)

const ExampleConfigFile = `[Equations]

# The three equations map parametric coordinates (x, y, z) to world space.
# Allowed functions are sin, cos, tan, asin, acos, atan, sinh, cosh, tanh,
# exp, ln (or log), sqrt, and abs. pi and e are constants. ^ and ** are both
# exponentiation.
X = "x*cos(y) * sin(z)"
Y = "x*sin(y) * sin(z)"
Z = "x * cos(z)"

[Grid]

# Parametric bounds of the grid along u (which is passed as x), v (y), and w
# (z). Lines are drawn at NbU evenly spaced values of u between UMin and UMax,
# and similarly for the other axes. Setting a density to 0 removes every line
# which runs at a fixed value of that coordinate.
UMin = -1.6
UMax = 15
NbU = 5

VMin = 0
VMax = 7
NbV = 5

WMin = 0
WMax = 7
NbW = 5

#######################
# Optional Parameters #
#######################

[Pick]

# Rays are marched in steps of StepRadius/2 and stop at the first grid point
# within StepRadius of the marched position, or after MaxLength.
# StepRadius = 0.45
# MaxLength = 200

[Cache]

# Thickness of the rendered line segments.
# Thickness = 0.02
# Curvature is integrated over [-HalfWidth, HalfWidth] around each segment's
# midpoint when choosing how finely it is sampled.
# HalfWidth = 1`

type GridConfig struct {
	UMin, UMax float64
	NbU        int
	VMin, VMax float64
	NbV        int
	WMin, WMax float64
	NbW        int
}

type EquationsConfig struct {
	X, Y, Z string
}

type PickConfig struct {
	StepRadius, MaxLength float64
}

type CacheConfig struct {
	Thickness, HalfWidth float64
}

// Config is the contents of a curvgrid configuration file.
type Config struct {
	Equations EquationsConfig
	Grid      GridConfig
	Pick      PickConfig
	Cache     CacheConfig
}

// DefaultConfig returns the Config which an empty configuration file would
// produce.
func DefaultConfig() *Config {
	opts := scene.DefaultOptions()
	return &Config{
		Equations: EquationsConfig{
			X: "x*cos(y) * sin(z)",
			Y: "x*sin(y) * sin(z)",
			Z: "x * cos(z)",
		},
		Grid: GridConfig{
			UMin: -1.6, UMax: 15, NbU: 5,
			VMin: 0, VMax: 7, NbV: 5,
			WMin: 0, WMax: 7, NbW: 5,
		},
		Pick:  PickConfig{opts.StepRadius, opts.MaxLength},
		Cache: CacheConfig{opts.Thickness, opts.HalfWidth},
	}
}

// ReadConfig reads the file fname on top of DefaultConfig() and checks the
// result. Files ending in .toml are read as TOML, everything else as
// git-config style INI.
func ReadConfig(fname string) (*Config, error) {
	con := DefaultConfig()
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".toml":
		md, err := toml.DecodeFile(fname, con)
		if err != nil {
			return nil, err
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, fmt.Errorf(
				"Unrecognized variable '%s' in '%s'.", keys[0], fname,
			)
		}
	default:
		if err := gcfg.ReadFileInto(con, fname); err != nil {
			return nil, err
		}
	}

	if err := con.CheckInit(); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return con, nil
}

// ParseConfig is ReadConfig for INI text which is already in memory.
func ParseConfig(text string) (*Config, error) {
	con := DefaultConfig()
	if err := gcfg.ReadStringInto(con, text); err != nil {
		return nil, err
	}
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

// CheckInit checks that every field has a usable value. Equations and grid
// bounds get the same checks as a scene.Request.
func (con *Config) CheckInit() error {
	eqs := con.Equations.Array()
	for i, field := range []string{"X", "Y", "Z"} {
		if strings.TrimSpace(eqs[i]) == "" {
			return fmt.Errorf("Need to specify an equation for '%s'.", field)
		}
		if err := scene.ValidateEquation(field, eqs[i]); err != nil {
			return fmt.Errorf("Invalid equation: %w", err)
		}
	}

	if err := scene.ValidateGrid(con.Grid.Config()); err != nil {
		return fmt.Errorf("Invalid grid: %w", err)
	}

	if !positive(con.Pick.StepRadius) {
		return fmt.Errorf(
			"StepRadius must be positive, but is %g.", con.Pick.StepRadius,
		)
	} else if !positive(con.Pick.MaxLength) {
		return fmt.Errorf(
			"MaxLength must be positive, but is %g.", con.Pick.MaxLength,
		)
	} else if !positive(con.Cache.Thickness) {
		return fmt.Errorf(
			"Thickness must be positive, but is %g.", con.Cache.Thickness,
		)
	} else if con.Cache.HalfWidth < 0 || math.IsNaN(con.Cache.HalfWidth) ||
		math.IsInf(con.Cache.HalfWidth, 0) {
		return fmt.Errorf(
			"HalfWidth must be non-negative, but is %g.", con.Cache.HalfWidth,
		)
	}

	return nil
}

func positive(x float64) bool { return x > 0 && !math.IsInf(x, 0) }

func (eqs *EquationsConfig) Array() [3]string {
	return [3]string{eqs.X, eqs.Y, eqs.Z}
}

func (g *GridConfig) Config() grid.Config {
	return grid.Config{
		UMin: g.UMin, UMax: g.UMax, NbU: g.NbU,
		VMin: g.VMin, VMax: g.VMax, NbV: g.NbV,
		WMin: g.WMin, WMax: g.WMax, NbW: g.NbW,
	}
}

// Options returns the scene.Options described by con.
func (con *Config) Options() scene.Options {
	opts := scene.DefaultOptions()
	opts.StepRadius = con.Pick.StepRadius
	opts.MaxLength = con.Pick.MaxLength
	opts.Thickness = con.Cache.Thickness
	opts.HalfWidth = con.Cache.HalfWidth
	return opts
}

// Request returns a scene.Request for con with the given apply counter.
func (con *Config) Request(counter uint64) scene.Request {
	return scene.Request{
		Counter:   counter,
		Equations: con.Equations.Array(),
		Grid:      con.Grid.Config(),
	}
}
