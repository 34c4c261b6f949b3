package pointcloud

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/hybridmap/utils"
)

// CloudContains reports whether the cloud has a point at the given position.
func CloudContains(cloud PointCloud, x, y, z float64) bool {
	_, ok := cloud.At(x, y, z)
	return ok
}

// CloudCentroid returns the arithmetic mean position of all points in the
// cloud, or the zero vector if the cloud is empty. The sum is accumulated by
// fanning the cloud's batched Iterate out across utils.GroupWorkParallel's
// workers, one batch per group, each merging its partial sum under a mutex.
func CloudCentroid(cloud PointCloud) r3.Vector {
	total := cloud.Size()
	if total == 0 {
		return r3.Vector{}
	}

	var mu sync.Mutex
	var sum r3.Vector
	var count int
	var numGroups int
	utils.GroupWorkParallel(context.Background(), total,
		func(groupCount int) { numGroups = groupCount },
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return nil, func() {
				var localSum r3.Vector
				var localCount int
				cloud.Iterate(numGroups, groupNum, func(p r3.Vector, d Data) bool {
					localSum.X += p.X
					localSum.Y += p.Y
					localSum.Z += p.Z
					localCount++
					return true
				})
				mu.Lock()
				sum.X += localSum.X
				sum.Y += localSum.Y
				sum.Z += localSum.Z
				count += localCount
				mu.Unlock()
			}
		},
	)
	if count == 0 {
		return r3.Vector{}
	}
	return r3.Vector{X: sum.X / float64(count), Y: sum.Y / float64(count), Z: sum.Z / float64(count)}
}

// CloudMatrixCol names a column of the matrix returned by CloudMatrix.
type CloudMatrixCol string

// The columns CloudMatrix may produce, always in this relative order.
const (
	CloudMatrixColX CloudMatrixCol = "x"
	CloudMatrixColY CloudMatrixCol = "y"
	CloudMatrixColZ CloudMatrixCol = "z"
	CloudMatrixColR CloudMatrixCol = "r"
	CloudMatrixColG CloudMatrixCol = "g"
	CloudMatrixColB CloudMatrixCol = "b"
	CloudMatrixColV CloudMatrixCol = "v"
)

// CloudMatrix flattens a cloud into a dense row-per-point matrix, with
// columns for position, and for color and/or value if any point in the
// cloud carries them. Returns (nil, nil) for an empty cloud.
func CloudMatrix(cloud PointCloud) (*mat.Dense, []CloudMatrixCol) {
	if cloud.Size() == 0 {
		return nil, nil
	}

	meta := cloud.MetaData()
	header := []CloudMatrixCol{CloudMatrixColX, CloudMatrixColY, CloudMatrixColZ}
	if meta.HasColor {
		header = append(header, CloudMatrixColR, CloudMatrixColG, CloudMatrixColB)
	}
	if meta.HasValue {
		header = append(header, CloudMatrixColV)
	}

	rows := make([][]float64, 0, cloud.Size())
	cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		row := make([]float64, 0, len(header))
		row = append(row, p.X, p.Y, p.Z)
		if meta.HasColor {
			var r, g, b uint8
			if d != nil && d.HasColor() {
				r, g, b = d.RGB255()
			}
			row = append(row, float64(r), float64(g), float64(b))
		}
		if meta.HasValue {
			var v int
			if d != nil && d.HasValue() {
				v = d.Value()
			}
			row = append(row, float64(v))
		}
		rows = append(rows, row)
		return true
	})

	m := mat.NewDense(len(rows), len(header), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m, header
}
