package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/hybridmap/spatialmath"
)

func TestRoundingPointCloud(t *testing.T) {
	pc := newRoundingPointCloud()

	test.That(t, pc.Set(r3.Vector{X: 1.4, Y: 1.6, Z: -0.5}, NewBasicData()), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)

	_, found := pc.At(1, 2, -0)
	test.That(t, found, test.ShouldBeTrue)

	_, found = pc.At(1.4, 1.6, -0.5)
	test.That(t, found, test.ShouldBeFalse)
}

func TestRecenter(t *testing.T) {
	pc := newRoundingPointCloud()
	test.That(t, pc.Set(r3.Vector{X: 1, Y: 2, Z: 3}, NewBasicData()), test.ShouldBeNil)

	offset := spatialmath.NewPoseFromPoint(r3.Vector{X: 10, Y: 0, Z: 0})
	moved, err := Recenter(pc, offset)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, moved.Size(), test.ShouldEqual, 1)
	_, found := moved.At(11, 2, 3)
	test.That(t, found, test.ShouldBeTrue)
}

func TestRecenterMergesNearbyPointsViaRounding(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 0.1, Y: 0, Z: 0}, NewBasicData()), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: 0.4, Y: 0, Z: 0}, NewBasicData()), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)

	moved, err := Recenter(pc, spatialmath.NewZeroPose())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moved.Size(), test.ShouldEqual, 1)
}
