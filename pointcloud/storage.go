package pointcloud

import (
	"github.com/golang/geo/r3"
)

// PointAndData pairs a point with its associated Data, used when iterating
// or bulk-loading a storage.
type PointAndData struct {
	P r3.Vector
	D Data
}

// storage is the backing store for a PointCloud: a map from position to
// Data, with a batched, concurrency-friendly iteration contract.
type storage interface {
	// Size returns the number of points held.
	Size() int

	// At returns the data stored at the given position, if any.
	At(x, y, z float64) (Data, bool)

	// Set stores d at p, overwriting any existing data at that position.
	Set(p r3.Vector, d Data) error

	// Iterate divides the stored points into numBatches contiguous groups
	// and calls fn for every point in the myBatch'th group, in storage
	// order. numBatches == 0 means "iterate everything from a single
	// caller." fn returning false stops iteration of that batch early.
	Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool)
}

// matrixStorage is a storage backed by an append-only slice plus an index
// map from position to slice offset, giving O(1) lookup and insertion.
type matrixStorage struct {
	points   []PointAndData
	indexMap map[r3.Vector]uint
}

func (ms *matrixStorage) Size() int {
	return len(ms.points)
}

func (ms *matrixStorage) At(x, y, z float64) (Data, bool) {
	idx, ok := ms.indexMap[r3.Vector{X: x, Y: y, Z: z}]
	if !ok {
		return nil, false
	}
	return ms.points[idx].D, true
}

func (ms *matrixStorage) Set(p r3.Vector, d Data) error {
	if idx, ok := ms.indexMap[p]; ok {
		ms.points[idx].D = d
		return nil
	}
	ms.indexMap[p] = uint(len(ms.points))
	ms.points = append(ms.points, PointAndData{P: p, D: d})
	return nil
}

// Iterate splits the points into numBatches contiguous groups (mirroring
// utils.GroupWorkParallel's group-sizing) and walks only the myBatch'th
// group. The caller is expected to invoke Iterate from numBatches separate
// goroutines, one per batch, if it wants the work done concurrently; a
// single storage does no internal fan-out of its own.
func (ms *matrixStorage) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	total := len(ms.points)
	if numBatches <= 1 {
		for _, pd := range ms.points {
			if !fn(pd.P, pd.D) {
				return
			}
		}
		return
	}

	groupSize := total / numBatches
	extra := total % numBatches
	from := groupSize * myBatch
	to := groupSize * (myBatch + 1)
	if myBatch == numBatches-1 {
		to += extra
	}
	for i := from; i < to; i++ {
		pd := ms.points[i]
		if !fn(pd.P, pd.D) {
			return
		}
	}
}
