package hybridgrid

const (
	nestBits       = 3
	nestSize       = 1 << nestBits
	nestCells      = 1 << (3 * nestBits)
	nestedGridSize = flatSize * nestSize // voxels per side of a fully-expanded NestedGrid
)

// NestedGrid is a nestSize x nestSize x nestSize arrangement of FlatGrids.
// Each FlatGrid is constructed lazily, on first write into its range.
type NestedGrid[V comparable] struct {
	metaCells [nestCells]*FlatGrid[V]
}

func (g *NestedGrid[V]) value(x, y, z int) V {
	var zero V
	mx, my, mz := x/flatSize, y/flatSize, z/flatSize
	cell := g.metaCells[toFlatIndex(mx, my, mz, nestBits)]
	if cell == nil {
		return zero
	}
	return cell.value(x-mx*flatSize, y-my*flatSize, z-mz*flatSize)
}

func (g *NestedGrid[V]) mutableValue(x, y, z int) *V {
	mx, my, mz := x/flatSize, y/flatSize, z/flatSize
	idx := toFlatIndex(mx, my, mz, nestBits)
	cell := g.metaCells[idx]
	if cell == nil {
		cell = &FlatGrid[V]{}
		g.metaCells[idx] = cell
	}
	return cell.mutableValue(x-mx*flatSize, y-my*flatSize, z-mz*flatSize)
}

// iterate composes the outer meta-cell traversal (z-major) with each
// sub-grid's own iterator, yielding cell indices relative to this grid.
func (g *NestedGrid[V]) iterate(yield func(x, y, z int, v V) bool) bool {
	for flat, cell := range g.metaCells {
		if cell == nil {
			continue
		}
		mx, my, mz := to3DIndex(flat, nestBits)
		ox, oy, oz := mx*flatSize, my*flatSize, mz*flatSize
		cont := cell.iterate(func(ix, iy, iz int, v V) bool {
			return yield(ox+ix, oy+iy, oz+iz, v)
		})
		if !cont {
			return false
		}
	}
	return true
}
