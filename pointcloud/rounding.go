package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/hybridmap/spatialmath"
)

// roundingPointCloud is a PointCloud implementation that rounds all points
// to the closest integer before it sets or gets data at a position. The
// bare floats measured from LiDARs are not stored because even if two
// points are only fractions of a unit apart, they would otherwise be
// considered different locations.
type roundingPointCloud struct {
	points storage
	meta   MetaData
}

func newRoundingPointCloud() PointCloud {
	return &roundingPointCloud{
		points: &matrixStorage{points: []PointAndData{}, indexMap: map[r3.Vector]uint{}},
		meta:   NewMetaData(),
	}
}

func (cloud *roundingPointCloud) Size() int {
	return cloud.points.Size()
}

func (cloud *roundingPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *roundingPointCloud) At(x, y, z float64) (Data, bool) {
	return cloud.points.At(math.Round(x), math.Round(y), math.Round(z))
}

// Set validates that the point can be precisely stored before setting it in the cloud.
func (cloud *roundingPointCloud) Set(p r3.Vector, d Data) error {
	p = r3.Vector{X: math.Round(p.X), Y: math.Round(p.Y), Z: math.Round(p.Z)}
	_, pointExists := cloud.At(p.X, p.Y, p.Z)
	if err := cloud.points.Set(p, d); err != nil {
		return err
	}
	if !pointExists {
		cloud.meta.Merge(p, d)
	}
	return nil
}

func (cloud *roundingPointCloud) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	cloud.points.Iterate(numBatches, myBatch, fn)
}

// FinalizeAfterReading rounds are already applied on Set, so a freshly
// loaded cloud needs no further adjustment.
func (cloud *roundingPointCloud) FinalizeAfterReading() (PointCloud, error) {
	return cloud, nil
}

// Recenter returns a new point cloud with every point of cloud passed
// through offset, rounding again as each point is reinserted so that points
// which collide after the shift are merged rather than duplicated. Used to
// re-express an exported map relative to a different origin, e.g. the
// sensor's final pose.
func Recenter(cloud PointCloud, offset spatialmath.Pose) (PointCloud, error) {
	out := newRoundingPointCloud()
	var setErr error
	cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		if err := out.Set(offset.Transform(p), d); err != nil {
			setErr = err
			return false
		}
		return true
	})
	if setErr != nil {
		return nil, setErr
	}
	return out, nil
}
