package pointcloud

import (
	"github.com/golang/geo/r3"
)

// Downsampler reduces the number of points in a cloud, typically by
// averaging points that fall within the same leaf cell of a voxel grid.
// HybridGrid.InsertScan applies a Downsampler to every cell it touches
// after inserting new points into it.
type Downsampler func(PointCloud) (PointCloud, error)

type leafCoords struct {
	I, J, K int64
}

type leafAccumulator struct {
	sumX, sumY, sumZ float64
	count            int
	data             Data
}

// NewVoxelGridDownsampler returns a Downsampler that buckets points into
// cubic cells of the given edge length and replaces each bucket with a
// single point at the centroid of the points it contains, carrying the
// data of the last point seen in that bucket.
func NewVoxelGridDownsampler(leafSize float64) Downsampler {
	return func(cloud PointCloud) (PointCloud, error) {
		if leafSize <= 0 || cloud.Size() == 0 {
			return cloud, nil
		}

		leaves := make(map[leafCoords]*leafAccumulator)
		cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
			coords := leafCoords{
				I: int64(floorDiv(p.X, leafSize)),
				J: int64(floorDiv(p.Y, leafSize)),
				K: int64(floorDiv(p.Z, leafSize)),
			}
			acc, ok := leaves[coords]
			if !ok {
				acc = &leafAccumulator{}
				leaves[coords] = acc
			}
			acc.sumX += p.X
			acc.sumY += p.Y
			acc.sumZ += p.Z
			acc.count++
			if d != nil {
				acc.data = d
			}
			return true
		})

		out := NewWithPrealloc(len(leaves))
		for _, acc := range leaves {
			centroid := r3.Vector{
				X: acc.sumX / float64(acc.count),
				Y: acc.sumY / float64(acc.count),
				Z: acc.sumZ / float64(acc.count),
			}
			if err := out.Set(centroid, acc.data); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

func floorDiv(v, leafSize float64) int64 {
	q := v / leafSize
	i := int64(q)
	if q < float64(i) {
		i--
	}
	return i
}
