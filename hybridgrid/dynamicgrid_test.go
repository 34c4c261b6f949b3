package hybridgrid

import (
	"testing"

	"go.viam.com/test"
)

func TestDynamicGridReadBeforeWriteIsDefaultAndDoesNotGrow(t *testing.T) {
	g := newDynamicGrid[int]()
	test.That(t, g.value(Index{X: 1000, Y: 1000, Z: 1000}), test.ShouldEqual, 0)
	test.That(t, g.bits, test.ShouldEqual, 1)
}

func TestDynamicGridSetNearOriginDoesNotGrow(t *testing.T) {
	g := newDynamicGrid[int]()
	*g.mutableValue(Index{X: 0, Y: 0, Z: 0}) = 5
	test.That(t, g.bits, test.ShouldEqual, 1)
	test.That(t, g.value(Index{X: 0, Y: 0, Z: 0}), test.ShouldEqual, 5)
}

func TestDynamicGridGrowsAndPreservesValues(t *testing.T) {
	g := newDynamicGrid[int]()
	*g.mutableValue(Index{X: 0, Y: 0, Z: 0}) = 5
	*g.mutableValue(Index{X: 100, Y: -100, Z: 50}) = 9

	test.That(t, g.bits, test.ShouldBeGreaterThan, 1)
	test.That(t, g.value(Index{X: 0, Y: 0, Z: 0}), test.ShouldEqual, 5)
	test.That(t, g.value(Index{X: 100, Y: -100, Z: 50}), test.ShouldEqual, 9)
}

func TestDynamicGridIterateYieldsSignedIndices(t *testing.T) {
	g := newDynamicGrid[int]()
	*g.mutableValue(Index{X: -3, Y: 2, Z: -1}) = 11

	found := make(map[Index]int)
	g.iterate(func(idx Index, v int) bool {
		found[idx] = v
		return true
	})
	test.That(t, found[Index{X: -3, Y: 2, Z: -1}], test.ShouldEqual, 11)
	test.That(t, len(found), test.ShouldEqual, 1)
}

func TestDynamicGridPanicsBeyondHardBound(t *testing.T) {
	defer func() {
		r := recover()
		test.That(t, r, test.ShouldNotBeNil)
	}()
	g := newDynamicGrid[int]()
	*g.mutableValue(Index{X: 100000, Y: 0, Z: 0}) = 1
}

func TestDynamicGridHardBoundIsEightThousandNinetyTwo(t *testing.T) {
	g := newDynamicGrid[int]()
	// The last index inside the documented hard bound should still succeed.
	*g.mutableValue(Index{X: 8191, Y: 0, Z: 0}) = 1
	test.That(t, g.bits, test.ShouldEqual, dynamicMaxBits)
	test.That(t, g.value(Index{X: 8191, Y: 0, Z: 0}), test.ShouldEqual, 1)
}
