// Package spatialmath defines the rigid-transform math used to move a scan
// into the map frame before it is indexed or queried.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a rotation followed by a translation, stored as
// a unit dual quaternion. Composing two transforms is dual quaternion
// multiplication; applying a transform to a point is the sandwich product
// q * (1, p) * conj(q).
type Pose struct {
	dq dualquat.Number
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewPoseFromPoint returns a pure translation with no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	pose := NewZeroPose()
	pose.setTranslation(p)
	return pose
}

// NewPoseFromOrientation returns a transform that translates by p and
// rotates by the given (not necessarily normalized) quaternion.
func NewPoseFromOrientation(p r3.Vector, rot quat.Number) Pose {
	if n := quat.Abs(rot); n != 0 && n != 1 {
		rot = quat.Scale(1/n, rot)
	}
	pose := Pose{dualquat.Number{Real: rot}}
	pose.setTranslation(p)
	return pose
}

// NewPoseFromAxisAngle returns a transform that translates by p and rotates
// by angle radians about axis (which need not be normalized).
func NewPoseFromAxisAngle(p r3.Vector, axis r3.Vector, angle float64) Pose {
	if axis.Norm() == 0 {
		axis = r3.Vector{X: 0, Y: 0, Z: 1}
	}
	axis = axis.Normalize()
	s, c := math.Sincos(angle / 2)
	pose := Pose{dualquat.Number{
		Real: quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s},
	}}
	pose.setTranslation(p)
	return pose
}

func (p *Pose) setTranslation(t r3.Vector) {
	p.dq.Dual = quat.Number{Real: 0, Imag: t.X / 2, Jmag: t.Y / 2, Kmag: t.Z / 2}
	p.dq.Dual = quat.Mul(p.dq.Dual, p.dq.Real)
}

// Point returns the translation component of the pose.
func (p Pose) Point() r3.Vector {
	t := dualquat.Mul(p.dq, dualquat.Conj(p.dq))
	return r3.Vector{X: t.Dual.Imag, Y: t.Dual.Jmag, Z: t.Dual.Kmag}
}

// Compose returns the transform that applies p first, then other.
func (p Pose) Compose(other Pose) Pose {
	return Pose{dualquat.Mul(other.dq, p.dq)}
}

// Transform applies the pose to a point, returning the point in the new
// frame, computed in float64.
func (p Pose) Transform(pt r3.Vector) r3.Vector {
	ptq := dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{Real: 0, Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z},
	}
	out := dualquat.Mul(dualquat.Mul(p.dq, ptq), dualquat.Conj(p.dq))
	return r3.Vector{X: out.Dual.Imag, Y: out.Dual.Jmag, Z: out.Dual.Kmag}
}

// TransformPointFloat32 applies the pose to a point using single-precision
// rotation math; HybridGrid.GetSurroundedCloud uses it to place scan points
// before its voxel lookup.
func (p Pose) TransformPointFloat32(pt r3.Vector) r3.Vector {
	q := p.dq.Real
	rot := mgl32.Quat{
		W: float32(q.Real),
		V: mgl32.Vec3{float32(q.Imag), float32(q.Jmag), float32(q.Kmag)},
	}.Mat4()

	v := mgl32.Vec4{float32(pt.X), float32(pt.Y), float32(pt.Z), 1}
	rotated := rot.Mul4x1(v)

	translation := p.Point()
	return r3.Vector{
		X: float64(rotated.X()) + translation.X,
		Y: float64(rotated.Y()) + translation.Y,
		Z: float64(rotated.Z()) + translation.Z,
	}
}

// Inverse returns the transform that undoes p.
func (p Pose) Inverse() Pose {
	return Pose{dualquat.Number{Real: quat.Conj(p.dq.Real), Dual: quat.Conj(p.dq.Dual)}}
}
