// Package hybridgrid implements a sparse, dynamically-growing hierarchical
// 3D voxel grid used as a spatial index over point clouds.
//
// The grid is assembled bottom-up: a dense FlatGrid of fixed size, a
// NestedGrid of lazily-allocated FlatGrids, and a DynamicGrid of
// lazily-allocated, origin-centered NestedGrids that doubles its extent
// whenever a write falls outside the current range. HybridGridBase adds
// metric resolution on top, and HybridGrid is the domain layer: its cell
// value is an owned point cloud, and it implements InsertScan and
// GetSurroundedCloud.
package hybridgrid

// Index identifies a cell in the grid's logical, possibly-negative voxel
// coordinate space.
type Index struct {
	X, Y, Z int
}

// toFlatIndex converts a 3D index with each dimension in [0, 2^bits) to a
// flat z-major index.
func toFlatIndex(x, y, z, bits int) int {
	return (((z << bits) + y) << bits) + x
}

// to3DIndex converts a flat z-major index back to its three dimensions,
// each in [0, 2^bits).
func to3DIndex(flat, bits int) (x, y, z int) {
	mask := (1 << bits) - 1
	x = flat & mask
	y = (flat >> bits) & mask
	z = (flat >> bits) >> bits
	return x, y, z
}
