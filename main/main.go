package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/phil-mansfield/curvgrid/coords"
	"github.com/phil-mansfield/curvgrid/geom"
	"github.com/phil-mansfield/curvgrid/grid"
	"github.com/phil-mansfield/curvgrid/io"
	"github.com/phil-mansfield/curvgrid/scene"
	plt "github.com/phil-mansfield/pyplot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	log = logrus.New()

	configFile, probeFile, pointsFile, plotFile string
	axisName                                    string
	samples                                     int
	verbose                                     bool
)

func main() {
	root := &cobra.Command{
		Use:   "curvgrid",
		Short: "Builds curvature-adaptive grids for curvilinear coordinate systems.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
			if verbose {
				log.Level = logrus.DebugLevel
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debugging information.")

	build := &cobra.Command{
		Use:   "build",
		Short: "Builds the grid described by a configuration file and prints its buckets.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return buildMain() },
	}
	build.Flags().StringVarP(&pointsFile, "points", "o", "", "Write the world-space grid samples to this file.")

	pick := &cobra.Command{
		Use:   "pick",
		Short: "Casts probe rays into the grid and prints the first point each one hits.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return probeMain(true) },
	}
	nearest := &cobra.Command{
		Use:   "nearest",
		Short: "Prints the grid point closest to each probe origin.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return probeMain(false) },
	}
	for _, cmd := range []*cobra.Command{pick, nearest} {
		cmd.Flags().StringVarP(&probeFile, "probes", "p", "", "Table of probe rays: ox oy oz dx dy dz.")
		cmd.MarkFlagRequired("probes")
	}

	profile := &cobra.Command{
		Use:   "profile",
		Short: "Prints the curvature and metric of the coordinate system along one grid axis.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return profileMain() },
	}
	profile.Flags().StringVarP(&axisName, "axis", "a", "u", "Axis to profile: u, v, or w.")
	profile.Flags().IntVarP(&samples, "samples", "n", 50, "Number of points in the profile.")
	profile.Flags().StringVar(&plotFile, "plot", "", "Also plot the profile to this image file.")

	for _, cmd := range []*cobra.Command{build, pick, nearest, profile} {
		cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (INI or .toml).")
		cmd.MarkFlagRequired("config")
		root.AddCommand(cmd)
	}

	root.AddCommand(&cobra.Command{
		Use:   "example-config",
		Short: "Prints an example configuration file to stdout.",
		Args:  cobra.NoArgs,
		Run:   func(cmd *cobra.Command, args []string) { fmt.Println(io.ExampleConfigFile) },
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyConfig reads configFile and builds its grid.
func applyConfig() (*io.Config, *scene.Snapshot, *scene.Controller, error) {
	con, err := io.ReadConfig(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	c := scene.NewController(con.Options(), log)
	if _, err := c.Apply(con.Request(1)); err != nil {
		return nil, nil, nil, err
	}
	return con, c.Snapshot(), c, nil
}

func buildMain() error {
	_, snap, _, err := applyConfig()
	if err != nil {
		return err
	}

	counts := map[int]int{}
	for e, insts := range snap.Data {
		counts[e.NbVertices()] += len(insts)
	}
	buckets := make([]int, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	fmt.Printf("# %8s %10s\n", "Vertices", "Segments")
	for _, b := range buckets {
		fmt.Printf("  %8d %10d\n", b, counts[b])
	}
	fmt.Printf("# %d segments, %d indexed points\n", snap.Data.Len(), snap.Index.Len())

	if pointsFile == "" {
		return nil
	}
	f, err := os.Create(pointsFile)
	if err != nil {
		return err
	}
	info := io.NewGridInfo(snap.Config, snap.Generation)
	if err := io.WritePoints(f, info, snap.Index.Points()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func probeMain(ray bool) error {
	probes, err := io.ReadProbes(probeFile)
	if err != nil {
		return err
	}
	_, _, c, err := applyConfig()
	if err != nil {
		return err
	}

	fmt.Printf("# %4s %12s %12s %12s\n", "ID", "X", "Y", "Z")
	for i, p := range probes {
		var (
			hit r3.Vec
			ok  bool
		)
		if ray {
			hit, ok = c.Pick(p.Origin, p.Dir)
		} else {
			hit, ok = c.Nearest(p.Origin)
		}

		if !ok {
			fmt.Printf("  %4d %12s %12s %12s\n", i, "-", "-", "-")
			continue
		}
		fmt.Printf("  %4d %12.6g %12.6g %12.6g\n", i, hit.X, hit.Y, hit.Z)
	}
	return nil
}

func profileMain() error {
	axis, ok := map[string]int{"u": 0, "v": 1, "w": 2}[strings.ToLower(axisName)]
	if !ok {
		return fmt.Errorf(
			"Unrecognized axis '%s'. Only u, v, and w are allowed.", axisName,
		)
	} else if samples < 2 {
		return fmt.Errorf("Need at least 2 samples, but got %d.", samples)
	}

	con, snap, _, err := applyConfig()
	if err != nil {
		return err
	}

	prof, err := curvatureProfile(
		snap.System, snap.Config.Grid(), axis, samples, con.Cache.HalfWidth,
	)
	if err != nil {
		return err
	}

	sys := snap.System
	canon := sys.Canonical()
	name := strings.ToLower(grid.Dir(axis).String())
	fmt.Printf("# X = %s, Y = %s, Z = %s\n", canon[0], canon[1], canon[2])
	fmt.Printf("# curvature density: %s\n", sys.CurvatureDensity(axis))
	fmt.Printf("# g_%s%s = %s\n", name, name, sys.Metric()[axis][axis])
	fmt.Printf("# %12s %12s %8s %12s %12s\n", name, "Curvature", "Density", "Stretch", "Volume")
	for i, t := range prof.T {
		k := prof.Curvature[i]
		fmt.Printf("  %12.6g %12.6g %8d %12.6g %12.6g\n",
			t, k, grid.Density(k), prof.Stretch[i], prof.Volume[i])
	}

	if plotFile != "" {
		plt.Figure()
		plt.Plot(prof.T, prof.Curvature, "k", plt.LW(2))
		plt.Title(fmt.Sprintf(`Curvature along $%s$`, name))
		plt.XLabel(fmt.Sprintf(`$%s$`, name), plt.FontSize(16))
		plt.YLabel(`$\kappa$`, plt.FontSize(16))
		plt.SaveFig(plotFile)
		plt.Execute()
	}
	return nil
}

// profile samples the coordinate system along one grid axis. Stretch is the
// world-space length of a unit parametric step along the axis, sqrt(g_aa),
// and Volume is the volume element sqrt(|det g|).
type profile struct {
	T, Curvature, Stretch, Volume []float64
}

// curvatureProfile evaluates the profile along axis at n evenly spaced
// points between the axis bounds. The other two coordinates are held at the
// centers of their bounds.
func curvatureProfile(
	sys *coords.System, g geom.Grid, axis, n int, halfWidth float64,
) (*profile, error) {
	center := [3]float64{}
	for i := range center {
		center[i] = (g[i].Min + g[i].Max) / 2
	}

	prof := &profile{
		T:         floats.Span(make([]float64, n), g[axis].Min, g[axis].Max),
		Curvature: make([]float64, n),
		Stretch:   make([]float64, n),
		Volume:    make([]float64, n),
	}
	for i, t := range prof.T {
		x := center
		x[axis] = t
		p := r3.Vec{X: x[0], Y: x[1], Z: x[2]}

		k, err := sys.Curvature(p, halfWidth)
		if err != nil {
			return nil, err
		}
		metric, err := sys.MetricAt(p)
		if err != nil {
			return nil, err
		}
		vol, err := sys.VolumeElement(p)
		if err != nil {
			return nil, err
		}
		prof.Curvature[i] = k[axis]
		prof.Stretch[i] = math.Sqrt(metric.At(axis, axis))
		prof.Volume[i] = vol
	}
	return prof, nil
}
