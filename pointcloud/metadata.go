package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData holds summary information about a PointCloud, updated
// incrementally as points are added.
type MetaData struct {
	HasColor bool
	HasValue bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns a MetaData with inverted bounds so the first Merge
// call establishes the real bounding box.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge folds a newly-inserted point and its data into the running summary.
func (meta *MetaData) Merge(p r3.Vector, d Data) {
	if d != nil {
		if d.HasColor() {
			meta.HasColor = true
		}
		if d.HasValue() {
			meta.HasValue = true
		}
	}
	meta.MinX = math.Min(meta.MinX, p.X)
	meta.MinY = math.Min(meta.MinY, p.Y)
	meta.MinZ = math.Min(meta.MinZ, p.Z)
	meta.MaxX = math.Max(meta.MaxX, p.X)
	meta.MaxY = math.Max(meta.MaxY, p.Y)
	meta.MaxZ = math.Max(meta.MaxZ, p.Z)
}

// Center returns the midpoint of the bounding box tracked by this metadata.
func (meta *MetaData) Center() r3.Vector {
	return r3.Vector{
		X: (meta.MinX + meta.MaxX) / 2,
		Y: (meta.MinY + meta.MaxY) / 2,
		Z: (meta.MinZ + meta.MaxZ) / 2,
	}
}
