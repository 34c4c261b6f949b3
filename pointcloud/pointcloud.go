// Package pointcloud defines a sparse point cloud type and the file
// formats, filters, and merges built on top of it.
//
// Its implementation is dictionary based and is not yet efficient. The
// current focus is to make it useful and as such the API is experimental
// and subject to change considerably.
package pointcloud

import (
	"github.com/golang/geo/r3"
)

// PointCloud is a general purpose container of points. It does not dictate
// whether the cloud is sparse or dense. The current basic implementation is
// sparse.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns summary information about the cloud.
	MetaData() MetaData

	// Set places the given point in the cloud, overwriting any existing
	// data at that position.
	Set(p r3.Vector, d Data) error

	// At returns the point in the cloud at the given position.
	// The second return value reports whether the point exists; the
	// first is its data, if any.
	At(x, y, z float64) (Data, bool)

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration stops after that call returns.
	// numBatches lets you divide up the work; 0 means don't divide.
	// myBatch is used iff numBatches > 0 and selects which batch to run.
	Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool)
}
