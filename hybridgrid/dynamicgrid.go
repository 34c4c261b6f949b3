package hybridgrid

import "fmt"

// dynamicMaxBits caps DynamicGrid's bit-width. At this width the grid spans
// nestedGridSize << dynamicMaxBits voxels per axis, i.e. +/-8192 around the
// origin; growing beyond it is a programmer error, not a recoverable one.
const dynamicMaxBits = 8

// DynamicGrid is an origin-centered arrangement of NestedGrids that starts
// at 2x2x2 meta-cells and doubles its extent in every dimension whenever a
// write falls outside the current range. Sub-grids are constructed lazily.
type DynamicGrid[V comparable] struct {
	bits      int
	metaCells []*NestedGrid[V]
}

func newDynamicGrid[V comparable]() *DynamicGrid[V] {
	return &DynamicGrid[V]{bits: 1, metaCells: make([]*NestedGrid[V], 8)}
}

func (g *DynamicGrid[V]) gridSize() int {
	return nestedGridSize << g.bits
}

func (g *DynamicGrid[V]) value(idx Index) V {
	var zero V
	size := g.gridSize()
	half := size / 2
	sx, sy, sz := idx.X+half, idx.Y+half, idx.Z+half
	if sx < 0 || sx >= size || sy < 0 || sy >= size || sz < 0 || sz >= size {
		return zero
	}
	mx, my, mz := sx/nestedGridSize, sy/nestedGridSize, sz/nestedGridSize
	cell := g.metaCells[toFlatIndex(mx, my, mz, g.bits)]
	if cell == nil {
		return zero
	}
	return cell.value(sx-mx*nestedGridSize, sy-my*nestedGridSize, sz-mz*nestedGridSize)
}

func (g *DynamicGrid[V]) mutableValue(idx Index) *V {
	size := g.gridSize()
	half := size / 2
	sx, sy, sz := idx.X+half, idx.Y+half, idx.Z+half
	if sx < 0 || sx >= size || sy < 0 || sy >= size || sz < 0 || sz >= size {
		g.grow()
		return g.mutableValue(idx)
	}
	mx, my, mz := sx/nestedGridSize, sy/nestedGridSize, sz/nestedGridSize
	flatIdx := toFlatIndex(mx, my, mz, g.bits)
	cell := g.metaCells[flatIdx]
	if cell == nil {
		cell = &NestedGrid[V]{}
		g.metaCells[flatIdx] = cell
	}
	return cell.mutableValue(sx-mx*nestedGridSize, sy-my*nestedGridSize, sz-mz*nestedGridSize)
}

// grow doubles the grid's extent in every dimension, re-centering existing
// meta-cells around the new origin. Panics if already at dynamicMaxBits,
// since that means an index outside the +/-8192 hard bound was requested.
func (g *DynamicGrid[V]) grow() {
	if g.bits >= dynamicMaxBits {
		panic(fmt.Sprintf("hybridgrid: index outside the +/-%d voxel hard bound", g.gridSize()/2))
	}
	newBits := g.bits + 1
	newMetaCells := make([]*NestedGrid[V], 8*len(g.metaCells))
	oldSize := 1 << g.bits
	offset := 1 << (g.bits - 1)
	for z := 0; z != oldSize; z++ {
		for y := 0; y != oldSize; y++ {
			for x := 0; x != oldSize; x++ {
				oldIdx := toFlatIndex(x, y, z, g.bits)
				if g.metaCells[oldIdx] == nil {
					continue
				}
				newIdx := toFlatIndex(x+offset, y+offset, z+offset, newBits)
				newMetaCells[newIdx] = g.metaCells[oldIdx]
			}
		}
	}
	g.metaCells = newMetaCells
	g.bits = newBits
}

// iterate yields every occupied cell's signed logical index and value, in
// outer-meta-cell-major order. The offset used to convert back to signed
// coordinates is fixed at the bit-width current when iteration starts;
// growing the grid mid-iteration invalidates the iterator.
func (g *DynamicGrid[V]) iterate(yield func(idx Index, v V) bool) bool {
	half := g.gridSize() / 2
	for flat, cell := range g.metaCells {
		if cell == nil {
			continue
		}
		mx, my, mz := to3DIndex(flat, g.bits)
		ox, oy, oz := mx*nestedGridSize, my*nestedGridSize, mz*nestedGridSize
		cont := cell.iterate(func(ix, iy, iz int, v V) bool {
			idx := Index{X: ox + ix - half, Y: oy + iy - half, Z: oz + iz - half}
			return yield(idx, v)
		})
		if !cont {
			return false
		}
	}
	return true
}
