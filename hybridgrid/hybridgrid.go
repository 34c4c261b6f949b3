package hybridgrid

import (
	"github.com/golang/geo/r3"

	"go.viam.com/hybridmap/logging"
	"go.viam.com/hybridmap/pointcloud"
	"go.viam.com/hybridmap/spatialmath"
	"go.viam.com/hybridmap/utils"
)

// surroundRadius bounds how far a scan point may be from the origin (in its
// own, untransformed frame) before GetSurroundedCloud ignores it. Points are
// expected to be close to the origin; for centimeter resolution a point can
// only be tens of meters away before the grid's hard bound is reached.
const surroundRadius = 100.0

// HybridGrid is a sparse, dynamically-growing spatial index over point
// clouds: every occupied voxel owns the points that have been routed into
// it. See InsertScan and GetSurroundedCloud.
type HybridGrid struct {
	base   *HybridGridBase[pointcloud.PointCloud]
	filter pointcloud.Downsampler
	logger logging.Logger
}

// New returns an empty HybridGrid with voxels of the given edge length,
// centered on the origin. filter is applied to every voxel InsertScan
// touches, to keep each voxel's point count bounded.
func New(resolution float32, filter pointcloud.Downsampler, logger logging.Logger) *HybridGrid {
	return &HybridGrid{
		base:   newHybridGridBase[pointcloud.PointCloud](resolution),
		filter: filter,
		logger: logger,
	}
}

// Resolution returns the edge length of a voxel.
func (g *HybridGrid) Resolution() float32 {
	return g.base.Resolution()
}

// GetCellIndex returns the voxel index containing point.
func (g *HybridGrid) GetCellIndex(point r3.Vector) Index {
	return g.base.GetCellIndex(point)
}

// All iterates over every occupied voxel's index and owned cloud.
func (g *HybridGrid) All() func(yield func(Index, pointcloud.PointCloud) bool) {
	return g.base.All()
}

// InsertScan routes every point of scan (already expressed in the map
// frame) into its voxel's owned point cloud, allocating clouds and growing
// the grid as needed, then downsamples every voxel that received a new
// point. A nil or empty scan is a no-op.
func (g *HybridGrid) InsertScan(scan pointcloud.PointCloud) error {
	if scan == nil || scan.Size() == 0 {
		return nil
	}

	touched := make(map[Index]struct{})
	var setErr error
	scan.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		idx := g.GetCellIndex(p)
		cell := g.base.MutableValue(idx)
		if *cell == nil {
			*cell = pointcloud.New()
		}
		if err := (*cell).Set(p, d); err != nil {
			setErr = err
			return false
		}
		touched[idx] = struct{}{}
		return true
	})
	if setErr != nil {
		return setErr
	}

	for idx := range touched {
		cell := g.base.MutableValue(idx)
		filtered, err := g.filter(*cell)
		if err != nil {
			return err
		}
		*cell = filtered
	}
	if g.logger != nil {
		g.logger.Debugw("inserted scan", "points", scan.Size(), "voxels touched", len(touched))
	}
	return nil
}

// GetSurroundedCloud returns the union of the owned clouds of every voxel
// that scan, once transformed into the map frame by pose, falls into.
//
// A scan point is radius-tested in its ORIGINAL, untransformed frame before
// the voxel lookup is done on its TRANSFORMED position; this asymmetry is
// preserved intentionally rather than "fixed." Deduplication of visited
// voxels is by cell-coordinate identity, not by the identity of the owned
// cloud.
func (g *HybridGrid) GetSurroundedCloud(scan pointcloud.PointCloud, pose spatialmath.Pose) (pointcloud.PointCloud, error) {
	if scan == nil {
		return pointcloud.New(), nil
	}

	seen := make(map[Index]pointcloud.PointCloud)
	radiusSquared := utils.Square(surroundRadius)
	scan.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		distSquared := utils.Square(p.X) + utils.Square(p.Y) + utils.Square(p.Z)
		if distSquared > radiusSquared {
			return true
		}
		transformed := pose.TransformPointFloat32(p)
		idx := g.GetCellIndex(transformed)
		if _, already := seen[idx]; already {
			return true
		}
		if cloud := g.base.Value(idx); cloud != nil {
			seen[idx] = cloud
		}
		return true
	})

	clouds := make([]pointcloud.PointCloud, 0, len(seen))
	for _, c := range seen {
		clouds = append(clouds, c)
	}
	return pointcloud.MergePointClouds(clouds)
}
