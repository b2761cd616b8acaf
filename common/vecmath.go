// Package common holds the small vector/quaternion/scalar math kit shared
// by the clip samplers, the bone blender, and root-motion extraction.
package common

import "math"

// Vec3 is a 3-component vector, used throughout the pipeline for bone
// translations, scales, and root-motion deltas.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the component-wise difference v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled uniformly by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Lerp linearly interpolates between v and o by t.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return Vec3{
		v.X + (o.X-v.X)*t,
		v.Y + (o.Y-v.Y)*t,
		v.Z + (o.Z-v.Z)*t,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float32 {
	return v.Sub(o).Length()
}

// Quat is a unit quaternion in (x, y, z, w) component order.
type Quat struct {
	X, Y, Z, W float32
}

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat {
	return Quat{0, 0, 0, 1}
}

// Add returns the component-wise sum of q and o. Used for cross-fade
// blending, where several weighted rotations are summed before a single
// final normalization, never slerp.
func (q Quat) Add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

// Scale returns q with each component scaled by s.
func (q Quat) Scale(s float32) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// Normalize returns q scaled to unit length. If q is (numerically) the zero
// quaternion, the identity rotation is returned rather than dividing by zero,
// matching the NumericNaN degradation policy (clamp to a neutral value).
func (q Quat) Normalize() Quat {
	lenSq := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if lenSq <= 1e-20 {
		return IdentityQuat()
	}
	inv := float32(1.0 / math.Sqrt(float64(lenSq)))
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Conjugate returns the conjugate of q (negated vector part), which for a
// unit quaternion is also its inverse.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Mul returns the Hamilton product q * o, used to compose a rotation delta
// (root-motion extraction) rather than to blend poses.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// IsNaN reports whether any component of v is NaN, used by the pipeline to
// drop poisoned pose contributions instead of propagating them.
func (v Vec3) IsNaN() bool {
	return isNaN32(v.X) || isNaN32(v.Y) || isNaN32(v.Z)
}

// IsNaN reports whether any component of q is NaN.
func (q Quat) IsNaN() bool {
	return isNaN32(q.X) || isNaN32(q.Y) || isNaN32(q.Z) || isNaN32(q.W)
}

func isNaN32(f float32) bool {
	return f != f
}

// Clamp restricts v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t (not clamped).
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
