// Package mathutil holds the handful of transform helpers that mgl64 does not
// provide in the conventions used by level data.
package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}

	One = mgl64.Vec3{1, 1, 1}
)

// EulerToQuat converts euler angles in degrees to a quaternion. Rotation is
// applied about Z, then X, then Y, matching the engine levels are authored for.
func EulerToQuat(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), AxisX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), AxisY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), AxisZ)
	return qy.Mul(qx).Mul(qz)
}

// EulerVecToQuat is EulerToQuat for a packed vector.
func EulerVecToQuat(v mgl64.Vec3) mgl64.Quat {
	return EulerToQuat(v[0], v[1], v[2])
}

// MirrorVec3 flips a position for left-handed play.
func MirrorVec3(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-v[0], v[1], v[2]}
}

// MirrorQuat flips a rotation for left-handed play.
func MirrorQuat(q mgl64.Quat) mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.V[0], -q.V[1], -q.V[2]}}
}

// ScaleVec multiplies two vectors component-wise.
func ScaleVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// DivVec divides component-wise, leaving a component untouched where the
// divisor is zero.
func DivVec(a, b mgl64.Vec3) mgl64.Vec3 {
	out := a
	for i := 0; i < 3; i++ {
		if b[i] != 0 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}

// Slerp interpolates along the shorter arc between a and b.
func Slerp(a, b mgl64.Quat, f float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, f)
}

// AngleBetween returns the rotation angle in degrees separating a and b.
func AngleBetween(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	if d > 1 {
		d = 1
	}
	return mgl64.RadToDeg(2 * math.Acos(d))
}

// CatmullRom evaluates the uniform Catmull-Rom segment
// through p1 and p2 at f in [0,1].
func CatmullRom(p0, p1, p2, p3 mgl64.Vec3, f float64) mgl64.Vec3 {
	f2 := f * f
	f3 := f2 * f
	a := p1.Mul(2)
	b := p2.Sub(p0).Mul(f)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(f2)
	d := p0.Mul(-1).Add(p1.Mul(3)).Sub(p2.Mul(3)).Add(p3).Mul(f3)
	return a.Add(b).Add(c).Add(d).Mul(0.5)
}

// ApproxVec3 reports whether a and b are within tol of each other. The
// tolerance is absolute, so components near zero compare sensibly.
func ApproxVec3(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

// ApproxQuat reports whether a and b describe the same rotation within tol.
// q and -q are treated as equal.
func ApproxQuat(a, b mgl64.Quat, tol float64) bool {
	return a.Sub(b).Len() <= tol || a.Add(b).Len() <= tol
}
