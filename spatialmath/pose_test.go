package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestZeroPoseIsIdentity(t *testing.T) {
	p := NewZeroPose()
	pt := r3.Vector{X: 1, Y: 2, Z: 3}
	out := p.Transform(pt)
	test.That(t, out.X, test.ShouldAlmostEqual, pt.X)
	test.That(t, out.Y, test.ShouldAlmostEqual, pt.Y)
	test.That(t, out.Z, test.ShouldAlmostEqual, pt.Z)
}

func TestPureTranslation(t *testing.T) {
	p := NewPoseFromPoint(r3.Vector{X: 10, Y: -5, Z: 2})
	out := p.Transform(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 11.0)
	test.That(t, out.Y, test.ShouldAlmostEqual, -4.0)
	test.That(t, out.Z, test.ShouldAlmostEqual, 3.0)
}

func TestAxisAngleRotation(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/2)
	out := p.Transform(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, out.X, test.ShouldAlmostEqual, 0.0)
	test.That(t, out.Y, test.ShouldAlmostEqual, 1.0)
	test.That(t, out.Z, test.ShouldAlmostEqual, 0.0)
}

func TestInverseUndoesTransform(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 1, Y: 1, Z: 0}, 0.73)
	pt := r3.Vector{X: 4, Y: -1, Z: 9}
	out := p.Inverse().Transform(p.Transform(pt))
	test.That(t, out.X, test.ShouldAlmostEqual, pt.X)
	test.That(t, out.Y, test.ShouldAlmostEqual, pt.Y)
	test.That(t, out.Z, test.ShouldAlmostEqual, pt.Z)
}

func TestComposeMatchesSequentialApplication(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	b := NewPoseFromAxisAngle(r3.Vector{X: 0, Y: 2, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/2)

	composed := a.Compose(b)
	pt := r3.Vector{X: 1, Y: 1, Z: 1}

	sequential := b.Transform(a.Transform(pt))
	combined := composed.Transform(pt)

	test.That(t, combined.X, test.ShouldAlmostEqual, sequential.X)
	test.That(t, combined.Y, test.ShouldAlmostEqual, sequential.Y)
	test.That(t, combined.Z, test.ShouldAlmostEqual, sequential.Z)
}
