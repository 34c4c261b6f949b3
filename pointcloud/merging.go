package pointcloud

import (
	"github.com/golang/geo/r3"

	"go.viam.com/hybridmap/spatialmath"
)

// ApplyOffset returns a new PointCloud with every point of cloud transformed
// by offset; the data at each point is carried over unchanged.
func ApplyOffset(cloud PointCloud, offset spatialmath.Pose) (PointCloud, error) {
	out := NewWithPrealloc(cloud.Size())
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

// MergePointClouds returns a new PointCloud containing every point of every
// input cloud. Later clouds overwrite earlier ones at colliding positions.
func MergePointClouds(clouds []PointCloud) (PointCloud, error) {
	total := 0
	for _, c := range clouds {
		total += c.Size()
	}
	out := NewWithPrealloc(total)
	var setErr error
	for _, c := range clouds {
		c.Iterate(0, 0, func(p r3.Vector, d Data) bool {
			if err := out.Set(p, d); err != nil {
				setErr = err
				return false
			}
			return true
		})
		if setErr != nil {
			return nil, setErr
		}
	}
	return out, nil
}
