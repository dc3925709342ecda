// Package geom provides the homogeneous rigid-body transforms shared by the
// calibration, label and pose writers.
//
// Transforms are stored row-major as [16]float64: m00,m01,m02,m03, m10,...
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when a flat slice does not hold a 4x4 matrix.
	ErrShape = errors.New("geom: transform must have 16 elements")
	// ErrSingular is returned when a transform cannot be inverted.
	ErrSingular = errors.New("geom: transform is singular")
)

// MatrixValidationTolerance is the tolerance used by IsRigid.
const MatrixValidationTolerance = 0.01

// Transform is a 4x4 homogeneous transform in row-major order.
type Transform [16]float64

// Rotation is a 3x3 rotation (or axis remap) in row-major order.
type Rotation [9]float64

// Identity is the 4x4 identity transform.
var Identity = Transform{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// IdentityRotation is the 3x3 identity.
var IdentityRotation = Rotation{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// FromRotation promotes a 3x3 rotation to a homogeneous transform with zero
// translation.
func FromRotation(r Rotation) Transform {
	return FromRotationTranslation(r, r3.Vector{})
}

// FromRotationTranslation builds the homogeneous transform [R | t; 0 0 0 1].
func FromRotationTranslation(r Rotation, t r3.Vector) Transform {
	return Transform{
		r[0], r[1], r[2], t.X,
		r[3], r[4], r[5], t.Y,
		r[6], r[7], r[8], t.Z,
		0, 0, 0, 1,
	}
}

// FromSlice copies a flat row-major slice into a Transform.
func FromSlice(v []float64) (Transform, error) {
	var t Transform
	if len(v) != len(t) {
		return t, fmt.Errorf("%w, got %d", ErrShape, len(v))
	}
	copy(t[:], v)
	return t, nil
}

// At returns the element at row r, column c.
func (t Transform) At(r, c int) float64 {
	return t[r*4+c]
}

func (t Transform) dense() *mat.Dense {
	data := make([]float64, len(t))
	copy(data, t[:])
	return mat.NewDense(4, 4, data)
}

func fromDense(m mat.Matrix) Transform {
	var t Transform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r*4+c] = m.At(r, c)
		}
	}
	return t
}

// Mul returns t · o.
func (t Transform) Mul(o Transform) Transform {
	var p mat.Dense
	p.Mul(t.dense(), o.dense())
	return fromDense(&p)
}

// Inverse returns t⁻¹.
func (t Transform) Inverse() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.dense()); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return fromDense(&inv), nil
}

// Apply transforms point p as the homogeneous vector [x y z 1] and returns
// the first three components.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z + t[3],
		Y: t[4]*p.X + t[5]*p.Y + t[6]*p.Z + t[7],
		Z: t[8]*p.X + t[9]*p.Y + t[10]*p.Z + t[11],
	}
}

// TopRows returns the upper 3x4 block flattened row-major.
func (t Transform) TopRows() [12]float64 {
	var out [12]float64
	copy(out[:], t[:12])
	return out
}

// ApproxEqual reports whether every element of t and o differ by at most tol.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	for i := range t {
		if math.Abs(t[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// IsRigid checks that t has a proper rotation block (det ≈ 1) and a
// [0 0 0 1] bottom row.
func IsRigid(t Transform) bool {
	r00, r01, r02 := t[0], t[1], t[2]
	r10, r11, r12 := t[4], t[5], t[6]
	r20, r21, r22 := t[8], t[9], t[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > MatrixValidationTolerance {
		return false
	}

	if t[12] != 0 || t[13] != 0 || t[14] != 0 || math.Abs(t[15]-1.0) > 0.001 {
		return false
	}

	return true
}
