// Command hybridmap builds a HybridGrid map from a sequence of point cloud
// scans and writes the merged cloud of every occupied voxel to disk.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"go.viam.com/hybridmap/hybridgrid"
	"go.viam.com/hybridmap/logging"
	"go.viam.com/hybridmap/pointcloud"
	"go.viam.com/hybridmap/spatialmath"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("hybridmap", flag.ContinueOnError)
	resolution := fs.Float64("resolution", 0.1, "voxel edge length, in the scans' own units")
	leafSize := fs.Float64("downsample", 0, "voxel-grid downsample leaf size applied per touched cell; 0 disables downsampling")
	outPath := fs.String("out", "map.pcd", "path to write the merged map to (.pcd or .las)")
	offset := fs.String("offset", "0,0,0", "comma-separated x,y,z translation applied to every input scan before insertion")
	recenter := fs.String("recenter", "", "comma-separated x,y,z translation applied to the merged map before writing, re-expressing it relative to a new origin")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: hybridmap [flags] scan.las [scan2.las ...]")
	}

	translation, err := parseVector(*offset)
	if err != nil {
		return fmt.Errorf("invalid -offset: %w", err)
	}
	pose := spatialmath.NewPoseFromPoint(translation)

	logger := logging.NewLogger("hybridmap")
	if *debug {
		logger = logging.NewDebugLogger("hybridmap")
	}

	filter := pointcloud.Downsampler(func(cloud pointcloud.PointCloud) (pointcloud.PointCloud, error) {
		return cloud, nil
	})
	if *leafSize > 0 {
		filter = pointcloud.NewVoxelGridDownsampler(*leafSize)
	}

	grid := hybridgrid.New(float32(*resolution), filter, logger)

	for _, fn := range fs.Args() {
		scan, err := pointcloud.NewFromFile(fn, logger)
		if err != nil {
			return fmt.Errorf("reading %s: %w", fn, err)
		}
		transformed, err := pointcloud.ApplyOffset(scan, pose)
		if err != nil {
			return fmt.Errorf("transforming %s: %w", fn, err)
		}
		if err := grid.InsertScan(transformed); err != nil {
			return fmt.Errorf("inserting %s: %w", fn, err)
		}
		logger.Infow("inserted scan", "file", fn, "points", scan.Size())
	}

	merged, err := mergeAll(grid)
	if err != nil {
		return err
	}
	logger.Infow("map complete", "voxels", len(merged))

	clouds := merged
	if *recenter != "" {
		shift, err := parseVector(*recenter)
		if err != nil {
			return fmt.Errorf("invalid -recenter: %w", err)
		}
		recentered, err := recenterAll(clouds, spatialmath.NewPoseFromPoint(shift))
		if err != nil {
			return fmt.Errorf("recentering map: %w", err)
		}
		clouds = recentered
	}

	return writeMap(clouds, *outPath)
}

// recenterAll re-expresses every cloud relative to the new origin implied by
// pose, merging any points that collide once shifted.
func recenterAll(clouds []pointcloud.PointCloud, pose spatialmath.Pose) ([]pointcloud.PointCloud, error) {
	out := make([]pointcloud.PointCloud, len(clouds))
	for i, cloud := range clouds {
		recentered, err := pointcloud.Recenter(cloud, pose)
		if err != nil {
			return nil, err
		}
		out[i] = recentered
	}
	return out, nil
}

// mergeAll flattens every occupied voxel's cloud into a single slice ready
// for MergePointClouds.
func mergeAll(grid *hybridgrid.HybridGrid) ([]pointcloud.PointCloud, error) {
	var clouds []pointcloud.PointCloud
	for _, cloud := range grid.All() {
		if cloud != nil {
			clouds = append(clouds, cloud)
		}
	}
	return clouds, nil
}

func writeMap(clouds []pointcloud.PointCloud, outPath string) error {
	merged, err := pointcloud.MergePointClouds(clouds)
	if err != nil {
		return err
	}

	switch filepath.Ext(outPath) {
	case ".las":
		return pointcloud.WriteToLASFile(merged, outPath)
	case ".pcd":
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		return pointcloud.ToPCD(merged, f, pointcloud.PCDBinary)
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(outPath))
	}
}

func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, fmt.Errorf("expected 3 comma-separated components, got %d", len(parts))
	}
	values := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return r3.Vector{}, err
		}
		values[i] = v
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}
