package core

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine 4x4 transform with its cached inverse
type Transform struct {
	m   mgl64.Mat4
	inv mgl64.Mat4
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{m: mgl64.Ident4(), inv: mgl64.Ident4()}
}

// NewTransform wraps a matrix, computing its inverse
func NewTransform(m mgl64.Mat4) Transform {
	return Transform{m: m, inv: m.Inv()}
}

// Translate returns a translation by d
func Translate(d Vec3) Transform {
	return Transform{
		m:   mgl64.Translate3D(d.X, d.Y, d.Z),
		inv: mgl64.Translate3D(-d.X, -d.Y, -d.Z),
	}
}

// Scale returns a non-uniform scale
func Scale(s Vec3) Transform {
	return Transform{
		m:   mgl64.Scale3D(s.X, s.Y, s.Z),
		inv: mgl64.Scale3D(1/s.X, 1/s.Y, 1/s.Z),
	}
}

// RotateXYZ rotates about X, then Y, then Z by the components of angles, in radians
func RotateXYZ(angles Vec3) Transform {
	m := mgl64.HomogRotate3DZ(angles.Z).
		Mul4(mgl64.HomogRotate3DY(angles.Y)).
		Mul4(mgl64.HomogRotate3DX(angles.X))
	return Transform{m: m, inv: m.Transpose()}
}

// LookAt returns a camera-to-world transform placing the local origin at origin,
// +Z toward target and +Y along up
func LookAt(origin, target, up Vec3) Transform {
	dir := target.Subtract(origin).Normalize()
	left := up.Normalize().Cross(dir).Normalize()
	newUp := dir.Cross(left)

	m := mgl64.Mat4FromCols(
		mgl64.Vec4{left.X, left.Y, left.Z, 0},
		mgl64.Vec4{newUp.X, newUp.Y, newUp.Z, 0},
		mgl64.Vec4{dir.X, dir.Y, dir.Z, 0},
		mgl64.Vec4{origin.X, origin.Y, origin.Z, 1},
	)
	return NewTransform(m)
}

// Compose returns the transform applying other first, then t
func (t Transform) Compose(other Transform) Transform {
	return Transform{m: t.m.Mul4(other.m), inv: other.inv.Mul4(t.inv)}
}

// Inverse returns the inverse transform
func (t Transform) Inverse() Transform {
	return Transform{m: t.inv, inv: t.m}
}

// Matrix returns the underlying matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return t.m
}

// Point transforms a position
func (t Transform) Point(p Vec3) Vec3 {
	return fromMgl(mgl64.TransformCoordinate(toMgl(p), t.m))
}

// Vector transforms a direction (ignores translation)
func (t Transform) Vector(v Vec3) Vec3 {
	return fromMgl(mgl64.TransformNormal(toMgl(v), t.m))
}

// Normal transforms a surface normal using the inverse transpose
func (t Transform) Normal(n Vec3) Vec3 {
	return fromMgl(mgl64.TransformNormal(toMgl(n), t.inv.Transpose())).Normalize()
}

// Translation returns the image of the origin
func (t Transform) Translation() Vec3 {
	col := t.m.Col(3)
	return NewVec3(col[0], col[1], col[2])
}

// ApproxEqual compares two transforms component-wise
func (t Transform) ApproxEqual(other Transform) bool {
	return t.m.ApproxEqualThreshold(other.m, 1e-9)
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}
