package utils

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	const totalSize = 103

	var mu sync.Mutex
	seen := make(map[int]bool, totalSize)
	var groupSizes []int

	err := GroupWorkParallel(
		context.Background(),
		totalSize,
		func(groupSize int) {
			mu.Lock()
			defer mu.Unlock()
			groupSizes = append(groupSizes, groupSize)
		},
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
					mu.Lock()
					defer mu.Unlock()
					seen[workNum] = true
				}, func() {
				}
		},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(seen), test.ShouldEqual, totalSize)
	test.That(t, groupSizes, test.ShouldResemble, []int{ParallelFactor})
}
