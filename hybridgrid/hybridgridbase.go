package hybridgrid

import (
	"math"

	"github.com/golang/geo/r3"
)

// HybridGridBase adds a metric voxel resolution and point/index conversion
// on top of a DynamicGrid, plus an iteration facade over every occupied
// cell.
type HybridGridBase[V comparable] struct {
	dynamic    *DynamicGrid[V]
	resolution float32
}

// newHybridGridBase returns an empty base grid with voxels of the given
// edge length, centered on the origin; the cell at index (0,0,0) is
// centered on the origin.
func newHybridGridBase[V comparable](resolution float32) *HybridGridBase[V] {
	return &HybridGridBase[V]{dynamic: newDynamicGrid[V](), resolution: resolution}
}

// Resolution returns the edge length of a voxel, in the same units as the
// points passed to GetCellIndex.
func (g *HybridGridBase[V]) Resolution() float32 {
	return g.resolution
}

// GetCellIndex returns the index of the cell containing point, rounding
// each coordinate to the nearest voxel (ties to even).
func (g *HybridGridBase[V]) GetCellIndex(point r3.Vector) Index {
	res := float64(g.resolution)
	return Index{
		X: int(math.RoundToEven(point.X / res)),
		Y: int(math.RoundToEven(point.Y / res)),
		Z: int(math.RoundToEven(point.Z / res)),
	}
}

// GetOctant returns one of the 8 unit offsets (0,0,0), (1,0,0), ...,
// (1,1,1), selected by i in [0,8).
func GetOctant(i int) Index {
	return Index{X: i & 1, Y: (i >> 1) & 1, Z: (i >> 2) & 1}
}

// GetCenterOfCell returns the metric center of the cell at idx.
func (g *HybridGridBase[V]) GetCenterOfCell(idx Index) r3.Vector {
	res := float64(g.resolution)
	return r3.Vector{X: float64(idx.X) * res, Y: float64(idx.Y) * res, Z: float64(idx.Z) * res}
}

// Value returns the value stored at idx, or the zero value of V if no
// sub-grid has been allocated there. Never allocates or grows the grid.
func (g *HybridGridBase[V]) Value(idx Index) V {
	return g.dynamic.value(idx)
}

// MutableValue returns a pointer to the slot at idx, lazily allocating
// sub-grids (and growing the dynamic grid) as needed. Panics if idx falls
// outside the +/-8192 voxel hard bound.
func (g *HybridGridBase[V]) MutableValue(idx Index) *V {
	return g.dynamic.mutableValue(idx)
}

// All returns a range-over-func iterator over every occupied cell's index
// and value. The iterator is invalidated by any growth of the grid that
// happens during iteration.
func (g *HybridGridBase[V]) All() func(yield func(Index, V) bool) {
	return func(yield func(Index, V) bool) {
		g.dynamic.iterate(yield)
	}
}
